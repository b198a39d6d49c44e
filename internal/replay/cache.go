package replay

import (
	"sync"

	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
)

// Cache remembers reconstructions of one game by log digest, so any change
// to the log misses. States handed out are shared and must not be modified.
type Cache struct {
	game *game.Game
	max  int

	mu      sync.Mutex
	entries map[string]*State
	order   []string
	hits    uint64
	misses  uint64
}

func NewCache(g *game.Game, max int) *Cache {
	if max <= 0 {
		max = 16
	}
	return &Cache{game: g, max: max, entries: map[string]*State{}}
}

// Get returns the state for l, reconstructing it on a miss.
func (c *Cache) Get(l *gamelog.Log) (*State, error) {
	key := l.Digest()

	c.mu.Lock()
	if s, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return s, nil
	}
	c.misses++
	c.mu.Unlock()

	s, err := Reconstruct(c.game, l)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = s
		c.order = append(c.order, key)
		for len(c.order) > c.max {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	return s, nil
}

// Stats reports hits and misses so far.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
