package gamelog

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"map18xx.dev/internal/encoding"
)

// DefaultGame is the ruleset used when a new log does not name one.
const DefaultGame = "1830"

// Log is a game's ordered action history.
type Log struct {
	GameName string   `json:"game_name"`
	Actions  []Action `json:"log"`
}

func New(gameName string) *Log {
	if gameName == "" {
		gameName = DefaultGame
	}
	return &Log{GameName: gameName, Actions: []Action{}}
}

// Append validates a and adds it to the end of the log.
func (l *Log) Append(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	l.Actions = append(l.Actions, a)
	return nil
}

// Len is the number of actions.
func (l *Log) Len() int { return len(l.Actions) }

// Prefix returns a log holding the first n actions.
func (l *Log) Prefix(n int) *Log {
	if n > len(l.Actions) {
		n = len(l.Actions)
	}
	return &Log{GameName: l.GameName, Actions: append([]Action(nil), l.Actions[:n]...)}
}

// canonical replaces a nil action list so the document always carries "log".
func (l *Log) canonical() *Log {
	if l.Actions != nil {
		return l
	}
	return &Log{GameName: l.GameName, Actions: []Action{}}
}

// Digest is the sha256 of the log's JSON encoding. Equal logs have equal
// digests.
func (l *Log) Digest() string {
	b, err := json.Marshal(l.canonical())
	if err != nil {
		return ""
	}
	return encoding.SHA256Hex(b)
}

//go:embed schemas/log.schema.json
var schemaJSON []byte

const schemaURL = "https://map18xx.dev/schemas/log.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func logSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Decode parses a log document, checking it against the log schema and
// validating every action.
func Decode(raw []byte) (*Log, error) {
	sch, err := logSchema()
	if err != nil {
		return nil, fmt.Errorf("log schema: %w", err)
	}
	v, err := encoding.Generic(raw)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	var l Log
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	if l.Actions == nil {
		l.Actions = []Action{}
	}
	for i, a := range l.Actions {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("log entry %d: %w", i, err)
		}
	}
	return &l, nil
}

// Read loads a log document. Paths ending in .zst are zstd compressed.
func Read(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	raw, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(raw)
}

// Write stores l at path, replacing any previous document. Paths ending in
// .zst are zstd compressed.
func Write(path string, l *Log) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(l.canonical(), "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeDoc(f, path, b); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeDoc(f *os.File, path string, b []byte) error {
	if !strings.HasSuffix(path, ".zst") {
		_, err := f.Write(b)
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(b); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}
