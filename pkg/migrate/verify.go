package migrate

import (
	"context"

	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// Verifier cross-checks the persisted mapping artifacts against the
// current state of the target store. It is a read-only companion to
// the deduplication pass: it reports problems, it never repairs them.
type Verifier struct {
	stores Stores
	logger logging.Logger
}

// NewVerifier creates a verifier.
func NewVerifier(stores Stores, logger logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Verifier{stores: stores, logger: logger.With(logging.F("component", "verify"))}
}

// DanglingFight is a target fight referencing a missing event or
// fighter.
type DanglingFight struct {
	FightID        string `json:"fightId"`
	MissingEvent   bool   `json:"missingEvent,omitempty"`
	MissingFighter bool   `json:"missingFighter,omitempty"`
}

// VerifyReport is the outcome of one verification pass.
type VerifyReport struct {
	// Artifact coverage.
	MappedFights  int `json:"mappedFights"`
	MappedUsers   int `json:"mappedUsers"`
	MappedReviews int `json:"mappedReviews"`

	// Mapped target ids that no longer exist in the store. Synthetic
	// dry-run ids in an artifact also land here: a dry-run is not
	// supposed to write artifacts at all.
	StaleFightMappings int `json:"staleFightMappings"`
	StaleUserMappings  int `json:"staleUserMappings"`

	// Referential integrity of the fight table itself.
	DanglingFights []DanglingFight `json:"danglingFights"`

	// Duplicate natural keys still present (the deduplication pass has
	// work to do).
	DuplicateFighterKeys int `json:"duplicateFighterKeys"`
	DuplicateEventKeys   int `json:"duplicateEventKeys"`
}

// Clean reports whether the pass found nothing to flag.
func (r *VerifyReport) Clean() bool {
	return r.StaleFightMappings == 0 &&
		r.StaleUserMappings == 0 &&
		len(r.DanglingFights) == 0 &&
		r.DuplicateFighterKeys == 0 &&
		r.DuplicateEventKeys == 0
}

// Run loads the mapping artifacts from artifactDir and checks them
// against the store. A missing artifact is fatal: verification without
// its inputs is meaningless.
func (v *Verifier) Run(ctx context.Context, artifactDir string) (*VerifyReport, error) {
	rep := &VerifyReport{DanglingFights: []DanglingFight{}}

	fightEntries, err := mapping.LoadFightEntries(artifactDir)
	if err != nil {
		return nil, err
	}
	userEntries, err := mapping.LoadUserEntries(artifactDir)
	if err != nil {
		return nil, err
	}
	rep.MappedFights = len(fightEntries)
	rep.MappedUsers = len(userEntries)

	// The review mapping only exists when the review stage ran; its
	// absence is not an error here.
	if reviewEntries, err := mapping.LoadReviewEntries(artifactDir); err == nil {
		rep.MappedReviews = len(reviewEntries)
	}

	fights, err := v.stores.ListFights(ctx)
	if err != nil {
		return nil, err
	}
	fighters, err := v.stores.ListFighters(ctx)
	if err != nil {
		return nil, err
	}
	targetEvents, err := v.stores.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	users, err := v.stores.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	fightIDs := make(map[string]struct{}, len(fights))
	for _, f := range fights {
		fightIDs[f.ID] = struct{}{}
	}
	fighterIDs := make(map[string]struct{}, len(fighters))
	for _, f := range fighters {
		fighterIDs[f.ID] = struct{}{}
	}
	eventIDs := make(map[string]struct{}, len(targetEvents))
	for _, e := range targetEvents {
		eventIDs[e.ID] = struct{}{}
	}
	userIDs := make(map[string]struct{}, len(users))
	for _, u := range users {
		userIDs[u.ID] = struct{}{}
	}

	for _, e := range fightEntries {
		if _, ok := fightIDs[e.NewID]; !ok {
			rep.StaleFightMappings++
		}
	}
	for _, e := range userEntries {
		if _, ok := userIDs[e.NewID]; !ok {
			rep.StaleUserMappings++
		}
	}

	for _, f := range fights {
		d := DanglingFight{FightID: f.ID}
		if _, ok := eventIDs[f.EventID]; !ok {
			d.MissingEvent = true
		}
		if _, ok := fighterIDs[f.Fighter1ID]; !ok {
			d.MissingFighter = true
		}
		if _, ok := fighterIDs[f.Fighter2ID]; !ok {
			d.MissingFighter = true
		}
		if d.MissingEvent || d.MissingFighter {
			rep.DanglingFights = append(rep.DanglingFights, d)
		}
	}

	rep.DuplicateFighterKeys = countDuplicateFighterKeys(fighters)
	rep.DuplicateEventKeys = countDuplicateEventKeys(targetEvents)

	if !rep.Clean() {
		v.logger.Warn("verification found inconsistencies",
			logging.F("stale_fight_mappings", rep.StaleFightMappings),
			logging.F("stale_user_mappings", rep.StaleUserMappings),
			logging.F("dangling_fights", len(rep.DanglingFights)),
			logging.F("duplicate_fighter_keys", rep.DuplicateFighterKeys),
			logging.F("duplicate_event_keys", rep.DuplicateEventKeys))
	}
	return rep, nil
}

func fighterNaturalKey(f *store.Fighter) string {
	return normalize.FighterKey(f.FirstName, f.LastName)
}

// eventNaturalKey matches the grouping the dedupe pass repairs:
// normalized name plus day, promotion excluded.
func eventNaturalKey(e *store.Event) string {
	return normalize.Name(e.Name) + normalize.KeySep + e.Date.UTC().Format("2006-01-02")
}

func countDuplicateFighterKeys(fighters []store.Fighter) int {
	seen := make(map[string]int, len(fighters))
	for _, f := range fighters {
		seen[fighterNaturalKey(&f)]++
	}
	dups := 0
	for _, n := range seen {
		if n > 1 {
			dups++
		}
	}
	return dups
}

func countDuplicateEventKeys(targetEvents []store.Event) int {
	seen := make(map[string]int, len(targetEvents))
	for _, e := range targetEvents {
		seen[eventNaturalKey(&e)]++
	}
	dups := 0
	for _, n := range seen {
		if n > 1 {
			dups++
		}
	}
	return dups
}
