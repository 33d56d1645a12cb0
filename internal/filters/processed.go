package filters

import "sync"

const (
	// processedCap bounds the set; exceeding it trims the oldest half.
	processedCap  = 1000
	processedKeep = 500
)

// ProcessedSet tracks swap identities that already produced a notification,
// so a swap alerts at most once per process lifetime. Insertion order is
// kept so eviction drops the oldest entries first.
type ProcessedSet struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{seen: make(map[string]struct{})}
}

// Contains reports whether the identity was already committed.
func (s *ProcessedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// Add commits an identity, trimming the oldest half once the cap is
// exceeded. Adding an identity already present is a no-op.
func (s *ProcessedSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)

	if len(s.order) > processedCap {
		evict := s.order[:len(s.order)-processedKeep]
		for _, old := range evict {
			delete(s.seen, old)
		}
		s.order = append([]string(nil), s.order[len(s.order)-processedKeep:]...)
	}
}

// Len returns the current number of tracked identities.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
