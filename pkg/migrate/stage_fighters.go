package migrate

import (
	"context"
	"strings"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// FighterStage extracts the distinct fighters embedded in the legacy
// fight records and ensures each exists in the target store. The
// (firstName, lastName) case-insensitive uniqueness invariant is the
// single most important one in the pipeline: a duplicate fighter
// corrupts fight matching for every bout they appear in.
type FighterStage struct {
	fighters FighterStore
	logger   logging.Logger
	dryRun   bool
}

// NewFighterStage creates the fighter stage.
func NewFighterStage(fighters FighterStore, logger logging.Logger, dryRun bool) *FighterStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FighterStage{fighters: fighters, logger: logger.With(logging.F("stage", StageFighters)), dryRun: dryRun}
}

type extractedFighter struct {
	firstName string
	lastName  string
	nickname  string
	gender    string
}

// Run processes the legacy fights and returns fighterKey -> target
// fighter id for every fighter it resolved. A fighter that fails to
// create is counted as an error and left unmapped; every fight
// referencing it is skipped downstream and reported, not fatal.
func (s *FighterStage) Run(ctx context.Context, fights []legacy.Fight) (map[string]string, *StageReport, error) {
	rep := NewStageReport(StageFighters)
	ids := make(map[string]string)

	var order []string
	byKey := make(map[string]extractedFighter)

	add := func(ref legacy.FighterRef) {
		first := strings.TrimSpace(ref.FirstName.String())
		last := strings.TrimSpace(ref.LastName.String())
		key := normalize.FighterKey(first, last)
		if !normalize.ValidFighterKey(key) {
			rep.Skip(SkipInvalidName)
			return
		}
		if _, seen := byKey[key]; seen {
			return
		}
		byKey[key] = extractedFighter{
			firstName: first,
			lastName:  last,
			nickname:  strings.TrimSpace(ref.Nickname.String()),
			gender:    strings.ToLower(strings.TrimSpace(ref.Gender.String())),
		}
		order = append(order, key)
	}

	for i := range fights {
		f := &fights[i]
		if f.Deleted.Bool() {
			continue
		}
		add(f.Fighter1())
		add(f.Fighter2())
	}

	rep.Total = len(order)
	for _, key := range order {
		fr := byKey[key]
		existing, err := s.fighters.FindFighterByName(ctx, fr.firstName, fr.lastName)
		if err == nil {
			ids[key] = existing.ID
			rep.Existed++
			continue
		}
		if !fperrors.IsNotFound(err) {
			s.logger.Error("fighter lookup failed", logging.Err(err),
				logging.F("fighter", fr.firstName+" "+fr.lastName))
			rep.Errors++
			continue
		}

		if s.dryRun {
			ids[key] = SyntheticID()
			rep.Created++
			continue
		}

		f := &store.Fighter{
			FirstName: fr.firstName,
			LastName:  fr.lastName,
			Nickname:  fr.nickname,
			Gender:    fr.gender,
		}
		if err := s.fighters.CreateFighter(ctx, f); err != nil {
			if fperrors.IsConflict(err) {
				if winner, ferr := s.fighters.FindFighterByName(ctx, fr.firstName, fr.lastName); ferr == nil {
					ids[key] = winner.ID
					rep.Existed++
					continue
				}
			}
			s.logger.Error("fighter create failed, fights referencing it will be skipped",
				logging.Err(err), logging.F("fighter", fr.firstName+" "+fr.lastName))
			rep.Errors++
			continue
		}
		ids[key] = f.ID
		rep.Created++
	}

	return ids, rep.Finish(), nil
}
