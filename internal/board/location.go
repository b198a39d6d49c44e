package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"map18xx.dev/internal/hexspace"
)

var ErrInvalidLabel = errors.New("invalid location label")

// maxLetters bounds the letter run of a label (ZZZZZZ is column 321272405).
const maxLetters = 6

// Coord is a canonical grid position.
type Coord struct {
	Col int
	Row int
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// Location is either a raw grid coordinate or a board label such as "B4".
type Location struct {
	Label string
	Coord Coord
}

func At(col, row int) Location      { return Location{Coord: Coord{Col: col, Row: row}} }
func Labeled(label string) Location { return Location{Label: label} }

func (l Location) IsLabel() bool { return l.Label != "" }

func (l Location) String() string {
	if l.IsLabel() {
		return l.Label
	}
	return l.Coord.String()
}

// Resolve returns the grid coordinate of l on a board with orientation o.
// Raw coordinates are returned unchanged.
func (l Location) Resolve(o hexspace.Orientation) (Coord, error) {
	if !l.IsLabel() {
		return l.Coord, nil
	}
	return ParseLabel(l.Label, o)
}

// ParseLabel converts a label into a grid coordinate. Letters count
// spreadsheet-style (A=1, Z=26, AA=27); numbers step by two per physical row.
// Horizontal boards read letters as columns, vertical boards as rows.
func ParseLabel(label string, o hexspace.Orientation) (Coord, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	alpha := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		alpha = alpha*26 + int(s[i]-'A'+1)
		i++
	}
	if i == 0 || i == len(s) || i > maxLetters {
		return Coord{}, fmt.Errorf("%w %q", ErrInvalidLabel, label)
	}
	num, err := strconv.Atoi(s[i:])
	if err != nil || num < 1 || strings.ContainsAny(s[i:], "+-") {
		return Coord{}, fmt.Errorf("%w %q", ErrInvalidLabel, label)
	}
	letter := alpha - 1
	number := (num - 1) / 2
	if o == hexspace.Vertical {
		return Coord{Col: number, Row: letter}, nil
	}
	return Coord{Col: letter, Row: number}, nil
}

// Label is the inverse of ParseLabel for staggered boards, where the number
// parity follows the letter parity (A1, B2, A3, ...).
func Label(c Coord, o hexspace.Orientation) string {
	letter, number := c.Col, c.Row
	if o == hexspace.Vertical {
		letter, number = c.Row, c.Col
	}
	return letters(letter+1) + strconv.Itoa(2*number+1+letter%2)
}

func letters(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// Center returns the middle of hex c on the board in hex units (corner radius
// 1), measured from the board's top-left corner.
func Center(c Coord, o hexspace.Orientation) hexspace.Vec2 {
	h := math.Sqrt(3)
	if o == hexspace.Vertical {
		x := h/2 + h*float64(c.Col)
		if c.Row%2 == 1 {
			x += h / 2
		}
		return hexspace.Vec2{X: x, Y: 1 + 1.5*float64(c.Row)}
	}
	y := h/2 + h*float64(c.Row)
	if c.Col%2 == 1 {
		y += h / 2
	}
	return hexspace.Vec2{X: 1 + 1.5*float64(c.Col), Y: y}
}

func (c Coord) MarshalJSON() ([]byte, error) { return json.Marshal([2]int{c.Col, c.Row}) }

func (c *Coord) UnmarshalJSON(b []byte) error {
	var v [2]int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Coord{Col: v[0], Row: v[1]}
	return nil
}

// MarshalText lets Coord key JSON objects as "col,row".
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d,%d", c.Col, c.Row)), nil
}

func (c *Coord) UnmarshalText(b []byte) error {
	col, row, ok := strings.Cut(string(b), ",")
	if !ok {
		return fmt.Errorf("bad coordinate key %q", b)
	}
	x, err := strconv.Atoi(col)
	if err != nil {
		return err
	}
	y, err := strconv.Atoi(row)
	if err != nil {
		return err
	}
	*c = Coord{Col: x, Row: y}
	return nil
}

// MarshalJSON writes labels as strings and raw coordinates as [col,row].
func (l Location) MarshalJSON() ([]byte, error) {
	if l.IsLabel() {
		return json.Marshal(l.Label)
	}
	return json.Marshal(l.Coord)
}

func (l *Location) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty", ErrInvalidLabel)
		}
		*l = Labeled(s)
		return nil
	}
	var c Coord
	if err := json.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	if c.Col < 0 || c.Row < 0 {
		return fmt.Errorf("location: negative coordinate %v", c)
	}
	*l = Location{Coord: c}
	return nil
}
