package protocol

import (
	"math"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
)

// Point is an [x, y] position in hex units (corner radius 1). Board points
// are measured from the board's top-left corner.
type Point [2]float64

// PointOf rounds v to four decimals so equal boards encode identically.
// Negative zero is written as 0.
func PointOf(v hexspace.Vec2) Point {
	r := func(x float64) float64 {
		x = math.Round(x*1e4) / 1e4
		if x == 0 {
			return 0
		}
		return x
	}
	return Point{r(v.X), r(v.Y)}
}

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Session         string `json:"session"`
	// Game names the ruleset when the session does not exist yet.
	Game     string `json:"game,omitempty"`
	MaxQueue int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Session         string `json:"session"`
	Game            string `json:"game"`
	Digest          string `json:"digest"`
	Actions         int    `json:"actions"`
	CatalogDigest   string `json:"catalog_digest"`
	Orientation     string `json:"orientation"`
	// Outline is the hex corners relative to its center.
	Outline []Point `json:"outline"`
}

// STATE (server -> client): the whole board after replaying the session log.
type StateMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Session         string         `json:"session"`
	Digest          string         `json:"digest"`
	Actions         int            `json:"actions"`
	Tiles           []TileView     `json:"tiles"`
	Tokens          []TokenView    `json:"tokens"`
	Remaining       map[string]int `json:"remaining"`
	Warnings        []string       `json:"warnings,omitempty"`
}

type TileView struct {
	Location board.Coord `json:"location"`
	Label    string      `json:"label"`
	Tile     string      `json:"tile"`
	Color    string      `json:"color"`
	// Rotation in degrees clockwise from the tile's default.
	Rotation int        `json:"rotation"`
	Placed   bool       `json:"placed,omitempty"`
	Center   Point      `json:"center"`
	Paths    []PathView `json:"paths,omitempty"`
}

// PathView is one track segment as a cubic curve in board space.
type PathView struct {
	Start    Point `json:"start"`
	Control1 Point `json:"control1"`
	Control2 Point `json:"control2"`
	End      Point `json:"end"`
	Bridge   bool  `json:"bridge,omitempty"`
}

type TokenView struct {
	Location board.Coord `json:"location"`
	Company  string      `json:"company"`
	Color    string      `json:"color"`
	Station  int         `json:"station"`
	Circle   int         `json:"circle"`
	IsHome   bool        `json:"is_home,omitempty"`
	Position Point       `json:"position"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ID              string         `json:"id"`
	Action          gamelog.Action `json:"action"`
}

// ACK (server -> client): the outcome of one ACT.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Accepted        bool   `json:"accepted"`
	Seq             int    `json:"seq,omitempty"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}

// ERROR (server -> client) ends a connection that failed the handshake.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func Reject(id, code, message string) AckMsg {
	return AckMsg{Type: TypeAck, ProtocolVersion: Version, ID: id, Code: code, Message: message}
}

func Accept(id string, seq int) AckMsg {
	return AckMsg{Type: TypeAck, ProtocolVersion: Version, ID: id, Accepted: true, Seq: seq}
}
