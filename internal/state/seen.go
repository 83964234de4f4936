package state

import (
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSeenCapacity bounds how many gesture ids a Seen filter remembers.
const DefaultSeenCapacity = 4096

// Seen drops gestures that were already drawn: echoes of our own gestures and
// duplicates relayed more than once. It remembers the most recent capacity
// ids.
type Seen struct {
	site  string
	clock *Clock
	ids   *lru.Cache[string, struct{}]
}

func NewSeen(site string, clock *Clock, capacity int) *Seen {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	// lru.New only fails for a non-positive size
	ids, _ := lru.New[string, struct{}](capacity)
	return &Seen{site: site, clock: clock, ids: ids}
}

// Observe reports whether g should be drawn, i.e. it comes from another site
// and its id has not been seen before.
func (s *Seen) Observe(g Gesture) bool {
	if g.Site == s.site {
		return false
	}
	if seen, _ := s.ids.ContainsOrAdd(g.ID, struct{}{}); seen {
		slog.Debug("duplicate gesture dropped", "id", g.ID, "site", g.Site)
		return false
	}
	s.clock.Witness(g.Seq)
	return true
}
