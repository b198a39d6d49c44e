// Package session runs live game sessions: it applies submitted actions to
// a session's log, persists the log and fans the reconstructed board out to
// connected clients.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"sync"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/config"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/indexdb"
	"map18xx.dev/internal/protocol"
	"map18xx.dev/internal/replay"
	"map18xx.dev/internal/supply"
	"map18xx.dev/internal/tiles"
)

// Store opens sessions on demand and keeps them for the life of the process.
type Store struct {
	cfg   config.Config
	cat   *tiles.Catalog
	index *indexdb.Index
	log   *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore serves sessions from cfg's directories. index may be nil.
func NewStore(cfg config.Config, cat *tiles.Catalog, index *indexdb.Index, logger *log.Logger) *Store {
	return &Store{cfg: cfg, cat: cat, index: index, log: logger, sessions: map[string]*Session{}}
}

// Open returns the session id, loading its log from disk. A session without
// a log is created for gameName (the default ruleset if empty).
func (st *Store) Open(id, gameName string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}

	logPath := st.cfg.LogPath(id)
	l, err := gamelog.Read(logPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		l = gamelog.New(gameName)
	default:
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	g, err := game.Load(st.cfg.GameDir(l.GameName), st.cat)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	s := &Session{
		ID:      id,
		game:    g,
		log:     l,
		logPath: logPath,
		cache:   replay.NewCache(g, 8),
		journal: gamelog.NewJournal(st.cfg.JournalDir(id), "actions"),
		index:   st.index,
		logger:  st.log,
		clients: map[*Client]struct{}{},
	}
	if _, err := s.cache.Get(l); err != nil {
		_ = s.journal.Close()
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	st.sessions[id] = s
	return s, nil
}

// Sessions returns the open sessions ordered by id.
func (st *Store) Sessions() []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close flushes every open session.
func (st *Store) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	var first error
	for _, s := range st.sessions {
		if err := s.journal.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Client is one connection's outgoing queue.
type Client struct {
	Out chan []byte
}

// Session is a single game in progress.
type Session struct {
	ID string

	game    *game.Game
	logPath string
	cache   *replay.Cache
	journal *gamelog.Journal
	index   *indexdb.Index
	logger  *log.Logger

	mu      sync.Mutex
	log     *gamelog.Log
	clients map[*Client]struct{}
}

// Join registers a client and returns the WELCOME and STATE it should be
// sent first.
func (s *Session) Join(c *Client) (protocol.WelcomeMsg, protocol.StateMsg, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.cache.Get(s.log)
	if err != nil {
		return protocol.WelcomeMsg{}, protocol.StateMsg{}, err
	}
	s.clients[c] = struct{}{}
	w := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		Session:         s.ID,
		Game:            s.log.GameName,
		Digest:          st.Digest,
		Actions:         s.log.Len(),
		CatalogDigest:   s.game.Catalog.Digest,
		Orientation:     s.game.Map.Orientation.String(),
	}
	for _, c := range hexspace.Corners(s.game.Map.Orientation) {
		w.Outline = append(w.Outline, protocol.PointOf(c))
	}
	return w, s.stateMsg(st), nil
}

func (s *Session) Leave(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// Clients is the number of connected clients.
func (s *Session) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// CacheStats reports reconstruction cache hits and misses.
func (s *Session) CacheStats() (hits, misses uint64) { return s.cache.Stats() }

// Log returns a copy of the session's log.
func (s *Session) Log() *gamelog.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Prefix(s.log.Len())
}

// Submit applies an action. Actions that fail to replay, or that would only
// produce a warning, are rejected and leave the log unchanged. An accepted
// action is persisted and the new state is returned for broadcast.
func (s *Session) Submit(ctx context.Context, id string, a gamelog.Action) (protocol.AckMsg, *protocol.StateMsg) {
	if err := a.Validate(); err != nil {
		return protocol.Reject(id, protocol.ErrBadRequest, err.Error()), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.log.Prefix(s.log.Len())
	next.Actions = append(next.Actions, a)
	seq := next.Len()

	st, err := s.cache.Get(next)
	if err != nil {
		return protocol.Reject(id, codeFor(err), err.Error()), nil
	}
	for _, w := range st.Warnings {
		if w.Index != seq-1 {
			continue
		}
		if w.Full {
			return protocol.Reject(id, protocol.ErrCapacity, w.Reason), nil
		}
		return protocol.Reject(id, protocol.ErrInvalidTarget, w.Reason), nil
	}

	if err := gamelog.Write(s.logPath, next); err != nil {
		s.logger.Printf("session %s: write log: %v", s.ID, err)
		return protocol.Reject(id, protocol.ErrInternal, "could not persist log"), nil
	}
	s.log = next
	if err := s.journal.Write(gamelog.JournalEntry{Game: s.ID, Seq: seq, Action: a}); err != nil {
		s.logger.Printf("session %s: journal: %v", s.ID, err)
	}
	if s.index != nil {
		if err := s.index.Record(ctx, s.ID, next, st); err != nil {
			s.logger.Printf("session %s: index: %v", s.ID, err)
		}
	}
	msg := s.stateMsg(st)
	return protocol.Accept(id, seq), &msg
}

// Broadcast queues b for every client. A client whose queue is full misses
// the message; the next STATE supersedes it.
func (s *Session) Broadcast(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.Out <- b:
		default:
		}
	}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, game.ErrUnknownTile):
		return protocol.ErrUnknownTile
	case errors.Is(err, game.ErrUnknownCompany):
		return protocol.ErrUnknownCompany
	case errors.Is(err, supply.ErrMissingAmount):
		return protocol.ErrMissingAmount
	case errors.Is(err, board.ErrInvalidLabel), errors.Is(err, gamelog.ErrInvalidAction):
		return protocol.ErrInvalidTarget
	}
	return protocol.ErrInternal
}

func (s *Session) stateMsg(st *replay.State) protocol.StateMsg {
	o := s.game.Map.Orientation
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Session:         s.ID,
		Digest:          st.Digest,
		Actions:         s.log.Len(),
		Tiles:           []protocol.TileView{},
		Tokens:          []protocol.TokenView{},
		Remaining:       st.Amounts,
	}
	for c, t := range st.Tiles {
		center := board.Center(c, o)
		v := protocol.TileView{
			Location: c,
			Label:    board.Label(c, o),
			Color:    t.Color().Name,
			Rotation: int(math.Round(t.Orientation() * 180 / math.Pi)),
			Center:   protocol.PointOf(center),
		}
		for _, p := range t.Paths() {
			cv := tiles.PathCurve(p, o, t.Orientation())
			v.Paths = append(v.Paths, protocol.PathView{
				Start:    protocol.PointOf(center.Add(cv.Start)),
				Control1: protocol.PointOf(center.Add(cv.Control1)),
				Control2: protocol.PointOf(center.Add(cv.Control2)),
				End:      protocol.PointOf(center.Add(cv.End)),
				Bridge:   p.IsBridge,
			})
		}
		switch tt := t.(type) {
		case *game.MapTile:
			v.Tile = tt.Tile
		case *replay.PlacedTile:
			v.Tile = tt.Name()
			v.Placed = true
		}
		msg.Tiles = append(msg.Tiles, v)
	}
	sort.Slice(msg.Tiles, func(i, j int) bool { return less(msg.Tiles[i].Location, msg.Tiles[j].Location) })

	for c, list := range st.Tokens {
		center := board.Center(c, o)
		tile := st.Tiles[c]
		for _, t := range list {
			pos := center
			if tile != nil {
				pos = center.Add(tiles.TokenPosition(tile, t.Station, t.Circle, o))
			}
			msg.Tokens = append(msg.Tokens, protocol.TokenView{
				Location: t.Coord,
				Company:  t.Company,
				Color:    t.Color,
				Station:  t.Station,
				Circle:   t.Circle,
				IsHome:   t.IsHome,
				Position: protocol.PointOf(pos),
			})
		}
	}
	sort.SliceStable(msg.Tokens, func(i, j int) bool {
		a, b := msg.Tokens[i], msg.Tokens[j]
		if a.Location != b.Location {
			return less(a.Location, b.Location)
		}
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		return a.Circle < b.Circle
	})
	for _, w := range st.Warnings {
		msg.Warnings = append(msg.Warnings, w.String())
	}
	return msg
}

func less(a, b board.Coord) bool {
	if a.Col != b.Col {
		return a.Col < b.Col
	}
	return a.Row < b.Row
}
