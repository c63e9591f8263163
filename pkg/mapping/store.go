// Package mapping holds the legacy-id to new-id ledger built while a
// migration stage runs, and the JSON artifacts that carry it between
// stages.
package mapping

import (
	"fmt"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
)

// Store is the per-run ledger of legacy-to-target id assignments for
// one entity type. It is bidirectional and enforces at-most-one
// assignment per legacy id and per target id within a run.
type Store struct {
	byLegacy map[int64]string
	byTarget map[string]int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byLegacy: make(map[int64]string),
		byTarget: make(map[string]int64),
	}
}

// Assign records a legacyID -> targetID association. Re-assigning the
// identical pair is a no-op; assigning either side to a different
// partner returns ErrConflict.
func (s *Store) Assign(legacyID int64, targetID string) error {
	if targetID == "" {
		return fmt.Errorf("empty target id for legacy %d: %w", legacyID, fperrors.ErrValidation)
	}
	if existing, ok := s.byLegacy[legacyID]; ok {
		if existing == targetID {
			return nil
		}
		return fmt.Errorf("legacy id %d already mapped to %s: %w", legacyID, existing, fperrors.ErrConflict)
	}
	if existing, ok := s.byTarget[targetID]; ok {
		return fmt.Errorf("target id %s already claimed by legacy %d: %w", targetID, existing, fperrors.ErrConflict)
	}
	s.byLegacy[legacyID] = targetID
	s.byTarget[targetID] = legacyID
	return nil
}

// TargetFor returns the target id mapped to a legacy id.
func (s *Store) TargetFor(legacyID int64) (string, bool) {
	id, ok := s.byLegacy[legacyID]
	return id, ok
}

// LegacyFor returns the legacy id that claimed a target id.
func (s *Store) LegacyFor(targetID string) (int64, bool) {
	id, ok := s.byTarget[targetID]
	return id, ok
}

// Len returns the number of assignments in the ledger.
func (s *Store) Len() int {
	return len(s.byLegacy)
}

// Each calls fn for every assignment. Iteration order is unspecified.
func (s *Store) Each(fn func(legacyID int64, targetID string)) {
	for legacyID, targetID := range s.byLegacy {
		fn(legacyID, targetID)
	}
}
