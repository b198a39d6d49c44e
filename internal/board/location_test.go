package board

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"map18xx.dev/internal/hexspace"
)

func TestParseLabel(t *testing.T) {
	cases := []struct {
		label string
		o     hexspace.Orientation
		want  Coord
	}{
		{"A1", hexspace.Horizontal, Coord{0, 0}},
		{"B4", hexspace.Horizontal, Coord{1, 1}},
		{"C5", hexspace.Horizontal, Coord{2, 2}},
		{"C5", hexspace.Vertical, Coord{2, 2}},
		{"E3", hexspace.Horizontal, Coord{4, 1}},
		{"E3", hexspace.Vertical, Coord{1, 4}},
		{"Z2", hexspace.Horizontal, Coord{25, 0}},
		{"AA1", hexspace.Horizontal, Coord{26, 0}},
		{"AB10", hexspace.Vertical, Coord{4, 27}},
		{"b4", hexspace.Horizontal, Coord{1, 1}},
		{"ZZZZZZ1", hexspace.Horizontal, Coord{321272405, 0}},
	}
	for _, c := range cases {
		got, err := ParseLabel(c.label, c.o)
		if err != nil {
			t.Fatalf("%s: %v", c.label, err)
		}
		if got != c.want {
			t.Fatalf("%s (%v): got %v want %v", c.label, c.o, got, c.want)
		}
	}
}

func TestParseLabel_Invalid(t *testing.T) {
	for _, bad := range []string{"", "B", "4", "B0", "B-1", "B+3", "4B", "B4x", "B 4", "AAAAAAA1", "ABCDEFGHIJKLMNOP1"} {
		if _, err := ParseLabel(bad, hexspace.Horizontal); !errors.Is(err, ErrInvalidLabel) {
			t.Fatalf("%q: expected ErrInvalidLabel, got %v", bad, err)
		}
	}
}

func TestResolve_RawCoordinatesIgnoreOrientation(t *testing.T) {
	l := At(3, 7)
	for _, o := range []hexspace.Orientation{hexspace.Horizontal, hexspace.Vertical} {
		got, err := l.Resolve(o)
		if err != nil || got != (Coord{3, 7}) {
			t.Fatalf("%v: got %v err=%v", o, got, err)
		}
	}
}

func TestLabel_InvertsParseLabel(t *testing.T) {
	for _, o := range []hexspace.Orientation{hexspace.Horizontal, hexspace.Vertical} {
		for col := 0; col < 30; col++ {
			for row := 0; row < 12; row++ {
				c := Coord{col, row}
				got, err := ParseLabel(Label(c, o), o)
				if err != nil {
					t.Fatalf("%v: %v", c, err)
				}
				if got != c {
					t.Fatalf("%v %v: label %s parsed to %v", o, c, Label(c, o), got)
				}
			}
		}
	}
	if got := Label(Coord{1, 1}, hexspace.Horizontal); got != "B4" {
		t.Fatalf("got %s want B4", got)
	}
}

func TestCenter_NeighboursAreOneHexApart(t *testing.T) {
	flat := math.Sqrt(3)
	d := Center(Coord{0, 0}, hexspace.Horizontal).Sub(Center(Coord{1, 0}, hexspace.Horizontal)).Len()
	if math.Abs(d-flat) > 1e-9 {
		t.Fatalf("horizontal neighbours %v apart, want %v", d, flat)
	}
	d = Center(Coord{0, 0}, hexspace.Vertical).Sub(Center(Coord{0, 1}, hexspace.Vertical)).Len()
	if math.Abs(d-flat) > 1e-9 {
		t.Fatalf("vertical neighbours %v apart, want %v", d, flat)
	}
}

func TestLocation_JSON(t *testing.T) {
	var ls []Location
	if err := json.Unmarshal([]byte(`["B4", [2, 3]]`), &ls); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ls[0] != Labeled("B4") || ls[1] != At(2, 3) {
		t.Fatalf("got %+v", ls)
	}
	b, err := json.Marshal(ls)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["B4",[2,3]]` {
		t.Fatalf("got %s", b)
	}
	var bad Location
	if err := json.Unmarshal([]byte(`[-1, 0]`), &bad); err == nil {
		t.Fatalf("negative coordinate accepted")
	}
	if err := json.Unmarshal([]byte(`""`), &bad); err == nil {
		t.Fatalf("empty label accepted")
	}

	m := map[Coord]int{{1, 2}: 5}
	b, err = json.Marshal(m)
	if err != nil || string(b) != `{"1,2":5}` {
		t.Fatalf("map key: %s err=%v", b, err)
	}
}
