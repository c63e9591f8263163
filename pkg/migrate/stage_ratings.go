package migrate

import (
	"context"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// RatingStage migrates per-user fight ratings. It requires the fight
// mapping and user maps produced by the earlier stages.
type RatingStage struct {
	ratings RatingStore
	logger  logging.Logger
	dryRun  bool
}

// NewRatingStage creates the rating stage.
func NewRatingStage(ratings RatingStore, logger logging.Logger, dryRun bool) *RatingStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RatingStage{
		ratings: ratings,
		logger:  logger.With(logging.F("stage", StageRatings)),
		dryRun:  dryRun,
	}
}

// Run migrates the legacy ratings. A rating is skipped when its fight
// was not mapped, its user was not migrated, or its score falls
// outside the 1..10 band.
func (s *RatingStage) Run(ctx context.Context, ratings []legacy.Rating, fightIDs map[int64]string, users *UserMaps) (*StageReport, error) {
	rep := NewStageReport(StageRatings)
	rep.Total = len(ratings)

	type pair struct{ userID, fightID string }
	seen := make(map[pair]struct{}, len(ratings))

	for i := range ratings {
		lr := &ratings[i]

		fightID, ok := fightIDs[lr.FightID]
		if !ok {
			rep.Skip(SkipNoFight)
			continue
		}
		userID, ok := users.Resolve(lr.Email.String(), lr.EmailHash.String())
		if !ok {
			rep.Skip(SkipNoUser)
			continue
		}
		score := lr.Score.Int()
		if score < 1 || score > 10 {
			rep.Skip(SkipInvalidScore)
			continue
		}
		key := pair{userID, fightID}
		if _, dup := seen[key]; dup {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[key] = struct{}{}

		if s.dryRun && (IsSyntheticID(userID) || IsSyntheticID(fightID)) {
			// A synthetic placeholder id has no rows to look up.
			rep.Created++
			continue
		}

		existing, err := s.ratings.FindRating(ctx, userID, fightID)
		switch {
		case err == nil && existing != nil:
			rep.Existed++
			continue
		case err != nil && !fperrors.IsNotFound(err):
			s.logger.Error("rating lookup failed", logging.Err(err), logging.F("legacy_id", lr.ID))
			rep.Errors++
			continue
		}

		if s.dryRun {
			rep.Created++
			continue
		}

		rt := &store.Rating{
			UserID:  userID,
			FightID: fightID,
			Score:   score,
		}
		if err := s.ratings.CreateRating(ctx, rt); err != nil {
			if fperrors.IsConflict(err) {
				rep.Existed++
				continue
			}
			s.logger.Error("rating create failed", logging.Err(err), logging.F("legacy_id", lr.ID))
			rep.Errors++
			continue
		}
		rep.Created++
	}

	rep.Finish()
	return rep, nil
}
