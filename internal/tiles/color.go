package tiles

import (
	"encoding/json"
	"strings"
)

// Color is a named tile or marker color.
type Color struct {
	Name  string
	Value string
}

var palette = map[string]string{
	"ground":  "#FDD9B5",
	"yellow":  "#FDEE00",
	"green":   "#00A550",
	"russet":  "#CD7F32",
	"grey":    "#ACACAC",
	"brown":   "#7B3F00",
	"red":     "#C80815",
	"blue":    "#007FFF",
	"barrier": "#660000",
	"white":   "#FFFFFF",
}

var (
	Ground  = ColorByName("ground")
	Yellow  = ColorByName("yellow")
	Green   = ColorByName("green")
	Russet  = ColorByName("russet")
	Grey    = ColorByName("grey")
	Barrier = ColorByName("barrier")
)

// ColorByName looks up a palette color. Unknown names are black.
func ColorByName(name string) Color {
	n := strings.ToLower(strings.TrimSpace(name))
	if v, ok := palette[n]; ok {
		return Color{Name: n, Value: v}
	}
	return Color{Name: n, Value: "#000000"}
}

func (c Color) MarshalJSON() ([]byte, error) { return json.Marshal(c.Name) }
