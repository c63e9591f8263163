package migrate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

func writeVerifyArtifacts(t *testing.T, dir string, fights []mapping.FightEntry, users []mapping.UserEntry) {
	t.Helper()
	if err := mapping.Save(filepath.Join(dir, mapping.FightMappingFile), fights); err != nil {
		t.Fatal(err)
	}
	if err := mapping.Save(filepath.Join(dir, mapping.UserMappingFile), users); err != nil {
		t.Fatal(err)
	}
}

func TestVerifierCleanStore(t *testing.T) {
	fs := newFakeStore()
	fightID := seedTargetFight(fs, "UFC 309", "2024-11-16", "Jon", "Jones", "Stipe", "Miocic")
	fs.users = append(fs.users, store.User{ID: "u-1", Email: "a@example.com"})

	dir := t.TempDir()
	writeVerifyArtifacts(t, dir,
		[]mapping.FightEntry{{LegacyID: 1, NewID: fightID}},
		[]mapping.UserEntry{{LegacyID: 10, NewID: "u-1"}},
	)

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Clean() {
		t.Errorf("report should be clean: %+v", rep)
	}
	if rep.MappedFights != 1 || rep.MappedUsers != 1 {
		t.Errorf("MappedFights/MappedUsers = %d/%d, want 1/1", rep.MappedFights, rep.MappedUsers)
	}
}

func TestVerifierStaleMappings(t *testing.T) {
	fs := newFakeStore()
	dir := t.TempDir()
	writeVerifyArtifacts(t, dir,
		[]mapping.FightEntry{{LegacyID: 1, NewID: "ft-gone"}},
		[]mapping.UserEntry{{LegacyID: 10, NewID: "u-gone"}},
	)

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.StaleFightMappings != 1 || rep.StaleUserMappings != 1 {
		t.Errorf("stale fights/users = %d/%d, want 1/1", rep.StaleFightMappings, rep.StaleUserMappings)
	}
	if rep.Clean() {
		t.Error("report should not be clean")
	}
}

func TestVerifierSyntheticIDsAreStale(t *testing.T) {
	fs := newFakeStore()
	dir := t.TempDir()
	// An artifact carrying dry-run placeholders is itself a defect.
	writeVerifyArtifacts(t, dir,
		[]mapping.FightEntry{{LegacyID: 1, NewID: SyntheticID()}},
		[]mapping.UserEntry{},
	)

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.StaleFightMappings != 1 {
		t.Errorf("StaleFightMappings = %d, want 1", rep.StaleFightMappings)
	}
}

func TestVerifierDanglingFights(t *testing.T) {
	fs := newFakeStore()
	fightID := seedTargetFight(fs, "UFC 309", "2024-11-16", "Jon", "Jones", "Stipe", "Miocic")
	// Break one FK: drop the event out from under the fight.
	fs.events = fs.events[:0]

	dir := t.TempDir()
	writeVerifyArtifacts(t, dir,
		[]mapping.FightEntry{{LegacyID: 1, NewID: fightID}},
		[]mapping.UserEntry{},
	)

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.DanglingFights) != 1 {
		t.Fatalf("DanglingFights = %d, want 1", len(rep.DanglingFights))
	}
	d := rep.DanglingFights[0]
	if d.FightID != fightID || !d.MissingEvent || d.MissingFighter {
		t.Errorf("dangling = %+v", d)
	}
}

func TestVerifierDuplicateNaturalKeys(t *testing.T) {
	fs := newFakeStore()
	date := time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC)
	// Promotion drift must not hide the duplicate event.
	fs.events = append(fs.events,
		store.Event{ID: "ev-1", Promotion: "UFC", Name: "UFC 300", Date: date},
		store.Event{ID: "ev-2", Promotion: "", Name: "UFC 300", Date: date},
	)
	fs.fighters = append(fs.fighters,
		store.Fighter{ID: "fr-1", FirstName: "Jose", LastName: "Aldo"},
		store.Fighter{ID: "fr-2", FirstName: "José", LastName: "Aldo"},
		store.Fighter{ID: "fr-3", FirstName: "Max", LastName: "Holloway"},
	)

	dir := t.TempDir()
	writeVerifyArtifacts(t, dir, []mapping.FightEntry{}, []mapping.UserEntry{})

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.DuplicateFighterKeys != 1 {
		t.Errorf("DuplicateFighterKeys = %d, want 1", rep.DuplicateFighterKeys)
	}
	if rep.DuplicateEventKeys != 1 {
		t.Errorf("DuplicateEventKeys = %d, want 1", rep.DuplicateEventKeys)
	}
}

func TestVerifierMissingArtifactsFatal(t *testing.T) {
	fs := newFakeStore()
	_, err := NewVerifier(fs, nil).Run(context.Background(), t.TempDir())
	if !fperrors.IsMissingArtifact(err) {
		t.Errorf("err = %v, want ErrMissingArtifact", err)
	}
}

func TestVerifierReviewArtifactOptional(t *testing.T) {
	fs := newFakeStore()
	dir := t.TempDir()
	writeVerifyArtifacts(t, dir, []mapping.FightEntry{}, []mapping.UserEntry{})

	rep, err := NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run without review mapping: %v", err)
	}
	if rep.MappedReviews != 0 {
		t.Errorf("MappedReviews = %d, want 0", rep.MappedReviews)
	}

	if err := mapping.Save(filepath.Join(dir, mapping.ReviewMappingFile), []mapping.ReviewEntry{{LegacyID: 1, NewID: "rv-1"}}); err != nil {
		t.Fatal(err)
	}
	rep, err = NewVerifier(fs, nil).Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.MappedReviews != 1 {
		t.Errorf("MappedReviews = %d, want 1", rep.MappedReviews)
	}
}
