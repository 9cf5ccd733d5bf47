package family

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces node and edge identifiers. Implementations must not
// return the same ID twice for the same prefix.
type IDGenerator interface {
	NewID(prefix string) string
}

// RandomIDs generates "<prefix>_<suffix>" identifiers where the suffix is 64
// random bits in base 36. Uniqueness is probabilistic.
type RandomIDs struct{}

// NewID implements IDGenerator.
func (RandomIDs) NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
}

// MakeID returns a random identifier with the given prefix.
func MakeID(prefix string) string {
	return RandomIDs{}.NewID(prefix)
}

// SequentialIDs generates "<prefix>_<n>" with a per-prefix counter starting
// at 1. It is safe for concurrent use.
type SequentialIDs struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequentialIDs returns a SequentialIDs that does not collide with any ID
// already present in g.
func NewSequentialIDs(g Graph) *SequentialIDs {
	s := &SequentialIDs{}
	for _, n := range g.Nodes {
		s.observe(n.ID)
	}
	for _, e := range g.Edges {
		s.observe(e.ID)
	}
	return s
}

// NewID implements IDGenerator.
func (s *SequentialIDs) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == nil {
		s.next = make(map[string]int)
	}
	s.next[prefix]++
	return prefix + "_" + strconv.Itoa(s.next[prefix])
}

func (s *SequentialIDs) observe(id string) {
	for i := len(id) - 1; i > 0; i-- {
		if id[i] != '_' {
			continue
		}
		n, err := strconv.Atoi(id[i+1:])
		if err != nil {
			return
		}
		prefix := id[:i]
		if s.next == nil {
			s.next = make(map[string]int)
		}
		if n > s.next[prefix] {
			s.next[prefix] = n
		}
		return
	}
}
