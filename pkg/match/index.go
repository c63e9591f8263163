// Package match implements the target-side entity index and the
// exact-then-relaxed matching cascade used to reconcile legacy records
// against already-migrated target rows.
package match

import (
	"github.com/fightpulse/migrate-cli/pkg/logging"
)

// Kind identifies the confidence of a match.
type Kind int

const (
	// None: no candidate found; the legacy record stays unmatched.
	None Kind = iota
	// Exact: the full composite key resolved directly.
	Exact
	// Fuzzy: only the relaxed key (last names + date) resolved.
	Fuzzy
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Fuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Result is the outcome of a lookup. TargetID is set only when Kind is
// Exact or Fuzzy.
type Result struct {
	Kind     Kind
	TargetID string
}

// Index is an in-memory dictionary from composite key to target record
// id, built once per stage from the full set of already-migrated
// target rows. It tracks which target ids have been claimed by a match
// so two legacy records cannot collapse onto the same target entity.
type Index struct {
	exact map[string]string
	// relaxed keeps candidates in insertion order; the first unclaimed
	// same-day candidate wins.
	relaxed map[string][]string
	claimed map[string]struct{}

	collisions int
	logger     logging.Logger
}

// NewIndex creates an empty index.
func NewIndex(logger logging.Logger) *Index {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Index{
		exact:   make(map[string]string),
		relaxed: make(map[string][]string),
		claimed: make(map[string]struct{}),
		logger:  logger,
	}
}

// InsertExact registers a target id under a composite key. The first
// id registered for a key wins; a second distinct id on the same key is
// a name collision (two different people sharing a normalized name, or
// a duplicate row) — it is counted and logged for review, never
// resolved automatically.
func (ix *Index) InsertExact(key, targetID string) {
	if key == "" {
		return
	}
	if existing, ok := ix.exact[key]; ok {
		if existing != targetID {
			ix.collisions++
			ix.logger.Warn("composite key collision",
				logging.F("key", key),
				logging.F("kept", existing),
				logging.F("dropped", targetID))
		}
		return
	}
	ix.exact[key] = targetID
}

// InsertRelaxed registers a target id under a relaxed fallback key.
// Duplicate ids under the same key are ignored.
func (ix *Index) InsertRelaxed(key, targetID string) {
	if key == "" {
		return
	}
	for _, id := range ix.relaxed[key] {
		if id == targetID {
			return
		}
	}
	ix.relaxed[key] = append(ix.relaxed[key], targetID)
}

// Lookup runs the matching cascade: the exact key first, then each
// relaxed key in order. A candidate whose id is already claimed is
// skipped. On a hit the winning id is claimed before returning.
func (ix *Index) Lookup(exactKey string, relaxedKeys ...string) Result {
	if id, ok := ix.exact[exactKey]; ok && !ix.isClaimed(id) {
		ix.Claim(id)
		return Result{Kind: Exact, TargetID: id}
	}
	for _, rk := range relaxedKeys {
		for _, id := range ix.relaxed[rk] {
			if ix.isClaimed(id) {
				continue
			}
			ix.Claim(id)
			return Result{Kind: Fuzzy, TargetID: id}
		}
	}
	return Result{Kind: None}
}

// LookupExact runs only the exact leg of the cascade.
func (ix *Index) LookupExact(exactKey string) Result {
	return ix.Lookup(exactKey)
}

// Claim marks a target id as assigned to some legacy record for the
// remainder of this pass.
func (ix *Index) Claim(targetID string) {
	ix.claimed[targetID] = struct{}{}
}

func (ix *Index) isClaimed(targetID string) bool {
	_, ok := ix.claimed[targetID]
	return ok
}

// Collisions returns the number of composite-key collisions observed
// while building the index.
func (ix *Index) Collisions() int {
	return ix.collisions
}

// Len returns the number of distinct exact keys in the index.
func (ix *Index) Len() int {
	return len(ix.exact)
}
