// Package resolve orchestrates batch identity resolution for imported
// result files: every raw name must end up matched to a canonical entity,
// or be explicitly confirmed or created, before results may commit.
package resolve

import (
	"fmt"

	"github.com/okian/nircadb/internal/domain/match"
)

// Legacy confidence thresholds: team names resolve against a small pool
// and demand a tighter match than runner names.
const (
	DefaultTeamThreshold   = 80
	DefaultRunnerThreshold = 70
	DefaultTopK            = 3
)

// Status tracks how an item was (or was not) resolved.
type Status string

// Item states.
const (
	// StatusPerfect marks an exact match needing no review.
	StatusPerfect Status = "perfect"
	// StatusReview marks a below-100 match awaiting a human decision.
	StatusReview Status = "needs_review"
	// StatusConfirmed marks a reviewed item whose match was accepted or
	// overridden.
	StatusConfirmed Status = "confirmed"
	// StatusNew marks an item resolved by creating a new entity.
	StatusNew Status = "new_entity"
)

// Pair is one raw name plus the scope it resolves within (e.g. the
// already-resolved team a runner name belongs to).
type Pair struct {
	Name    string
	Context string
}

// Item is the resolution state for one raw name.
type Item struct {
	Source     string
	Context    string
	Candidates []match.Match
	Status     Status
	Resolution string // canonical name once resolved
	Score      int    // confidence of the accepted candidate
}

// Resolved reports whether the item no longer needs attention.
func (it Item) Resolved() bool {
	return it.Status != StatusReview
}

// Stats summarizes a batch for logging and API responses.
type Stats struct {
	Total     int
	Perfect   int
	Confirmed int
	Created   int
	Pending   int
}

// Batch drives resolution of one import's names against a candidate pool.
type Batch struct {
	items []Item
}

// NewBatch resolves every pair against the pool for its context and
// partitions items into perfect and needs-review. pool returns the
// canonical candidate names for a context; an empty pool leaves the item
// in review with zero confidence.
func NewBatch(pairs []Pair, pool func(context string) []string, topK int) *Batch {
	if topK < 1 {
		topK = DefaultTopK
	}
	b := &Batch{items: make([]Item, len(pairs))}
	for i, p := range pairs {
		candidates := match.Resolve(p.Name, pool(p.Context), topK)
		item := Item{
			Source:     p.Name,
			Context:    p.Context,
			Candidates: candidates,
			Status:     StatusReview,
		}
		if len(candidates) > 0 && candidates[0].Score == match.ExactScore {
			item.Status = StatusPerfect
			item.Resolution = candidates[0].Candidate
			item.Score = candidates[0].Score
		}
		b.items[i] = item
	}
	return b
}

// Items returns a copy of the batch's items in input order.
func (b *Batch) Items() []Item {
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Confirm accepts the item's best candidate as its resolution.
func (b *Batch) Confirm(i int) error {
	item, err := b.item(i)
	if err != nil {
		return err
	}
	if len(item.Candidates) == 0 {
		return fmt.Errorf("%w: item %d has no candidates", ErrNoCandidates, i)
	}
	item.Resolution = item.Candidates[0].Candidate
	item.Score = item.Candidates[0].Score
	item.Status = StatusConfirmed
	return nil
}

// Override resolves the item to an arbitrary caller-supplied canonical
// name, replacing whatever the resolver suggested.
func (b *Batch) Override(i int, name string) error {
	item, err := b.item(i)
	if err != nil {
		return err
	}
	item.Resolution = name
	item.Score = 0
	item.Status = StatusConfirmed
	return nil
}

// MarkNew resolves the item by declaring a new canonical entity.
func (b *Batch) MarkNew(i int, name string) error {
	item, err := b.item(i)
	if err != nil {
		return err
	}
	item.Resolution = name
	item.Score = 0
	item.Status = StatusNew
	return nil
}

// Complete reports whether every item is resolved.
func (b *Batch) Complete() bool {
	for _, it := range b.items {
		if !it.Resolved() {
			return false
		}
	}
	return true
}

// Unresolved returns the items still needing review, in input order.
func (b *Batch) Unresolved() []Item {
	var out []Item
	for _, it := range b.items {
		if !it.Resolved() {
			out = append(out, it)
		}
	}
	return out
}

// Err returns ErrUnresolved when the batch cannot commit yet.
func (b *Batch) Err() error {
	if n := len(b.Unresolved()); n > 0 {
		return fmt.Errorf("%w: %d item(s) pending", ErrUnresolved, n)
	}
	return nil
}

// Stats tallies the batch by status.
func (b *Batch) Stats() Stats {
	s := Stats{Total: len(b.items)}
	for _, it := range b.items {
		switch it.Status {
		case StatusPerfect:
			s.Perfect++
		case StatusConfirmed:
			s.Confirmed++
		case StatusNew:
			s.Created++
		case StatusReview:
			s.Pending++
		}
	}
	return s
}

func (b *Batch) item(i int) (*Item, error) {
	if i < 0 || i >= len(b.items) {
		return nil, fmt.Errorf("%w: %d", ErrBadIndex, i)
	}
	return &b.items[i], nil
}
