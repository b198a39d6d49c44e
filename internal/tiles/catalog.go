package tiles

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"map18xx.dev/internal/encoding"
)

//go:embed schemas/tiledef.schema.json
var schemaJSON []byte

const schemaURL = "https://map18xx.dev/schemas/tiledef.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func definitionSchema() (*jsonschema.Schema, error) {
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

// Catalog maps tile names to their definitions.
type Catalog struct {
	Defs   map[string]*Definition
	Digest string
}

// Load reads every .json/.yaml file in dir. A definition's name is its file
// stem.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tile definitions: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !encoding.IsDocument(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	c := &Catalog{Defs: make(map[string]*Definition, len(files))}
	var concat bytes.Buffer
	for _, p := range files {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		concat.Write(raw)
		concat.WriteByte('\n')

		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		def, err := Parse(name, filepath.Base(p), raw)
		if err != nil {
			return nil, err
		}
		if _, dup := c.Defs[name]; dup {
			return nil, fmt.Errorf("%w: %s defined twice", ErrDefinition, name)
		}
		c.Defs[name] = def
	}
	c.Digest = encoding.SHA256Hex(concat.Bytes())
	return c, nil
}

// Parse decodes and validates a single definition document. file selects the
// format by extension.
func Parse(name, file string, raw []byte) (*Definition, error) {
	b, err := encoding.ToJSON(file, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDefinition, err)
	}
	generic, err := encoding.Generic(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDefinition, file, err)
	}
	s, err := definitionSchema()
	if err != nil {
		return nil, fmt.Errorf("compile tile schema: %w", err)
	}
	if err := s.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDefinition, file, err)
	}

	var def Definition
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDefinition, file, err)
	}
	def.Name = name
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.Defs[name]
	return d, ok
}

// Names returns the definition names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.Defs))
	for n := range c.Defs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
