package repository

import (
	"context"
	"hash/fnv"
	"math"
	"slices"
	"sync"

	"github.com/okian/resonance/internal/domain/model"
)

// Candidate is the blend being ranked.
type Candidate = model.BlendCandidate

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then id ASC. "less" means ranks earlier, so an
// in-order traversal yields the leaderboard from best to worst. Subtree sizes
// give O(log n) rank lookups.

type record struct {
	score   float64
	weights []float64
}

type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority derives a heap priority from the id so the tree shape is
// reproducible across runs.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, score float64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// position returns the zero-based in-order index of (id, score).
func position(n *node, id string, score float64) int {
	pos := 0
	for n != nil {
		switch {
		case score == n.score && id == n.id:
			return pos + nsize(n.left)
		case less(score, id, n.score, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}

func last(n *node) *node {
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) >= limit {
		return
	}
	*out = append(*out, Entry{
		Rank:    len(*out) + 1,
		ID:      n.id,
		Score:   n.score,
		Weights: slices.Clone(records[n.id].weights),
	})
	collectTopN(n.right, limit, records, out)
}

// TreapStore is a concurrency-safe ranked leaderboard.
type TreapStore struct {
	mu         sync.RWMutex
	root       *node
	byID       map[string]record
	maxEntries int
}

// NewTreapStore creates an empty store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{byID: make(map[string]record)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
func (s *TreapStore) UpdateBest(_ context.Context, c Candidate, score float64) (bool, error) {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false, ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[c.ID]; ok {
		if score <= old.score {
			return false, nil
		}
		s.root = deleteNode(s.root, c.ID, old.score)
	}
	s.byID[c.ID] = record{score: score, weights: slices.Clone(c.Weights)}
	s.root = insert(s.root, c.ID, score)

	if s.maxEntries > 0 && len(s.byID) > s.maxEntries {
		worst := last(s.root)
		s.root = deleteNode(s.root, worst.id, worst.score)
		delete(s.byID, worst.id)
		if worst.id == c.ID {
			return false, nil
		}
	}
	return true, nil
}

// Rank returns the current rank and score for a candidate in O(log n).
func (s *TreapStore) Rank(_ context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:    position(s.root, id, rec.score) + 1,
		ID:      id,
		Score:   rec.score,
		Weights: slices.Clone(rec.weights),
	}, nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the number of candidates.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
