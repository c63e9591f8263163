package migrate

import (
	"context"
	"strings"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// ReviewStage migrates written fight reviews. The stage is isolated:
// the orchestrator logs its failure and carries on, and it is safe to
// re-run alone afterward.
type ReviewStage struct {
	reviews ReviewStore
	logger  logging.Logger
	dryRun  bool
}

// NewReviewStage creates the review stage.
func NewReviewStage(reviews ReviewStore, logger logging.Logger, dryRun bool) *ReviewStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReviewStage{
		reviews: reviews,
		logger:  logger.With(logging.F("stage", StageReviews)),
		dryRun:  dryRun,
	}
}

// ReviewStageResult carries the review mapping the upvote stage needs.
type ReviewStageResult struct {
	Entries []mapping.ReviewEntry
	Report  *StageReport
}

// Run migrates the legacy reviews. (userId, fightId) is unique on the
// target; a second review by the same user for the same fight adopts
// the existing row.
func (s *ReviewStage) Run(ctx context.Context, reviews []legacy.Review, fightIDs map[int64]string, users *UserMaps) (*ReviewStageResult, error) {
	rep := NewStageReport(StageReviews)
	res := &ReviewStageResult{
		Entries: []mapping.ReviewEntry{},
		Report:  rep,
	}

	rep.Total = len(reviews)
	for i := range reviews {
		lr := &reviews[i]

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

		record := func(targetID string) {
			res.Entries = append(res.Entries, mapping.ReviewEntry{
				LegacyID: lr.ID,
				NewID:    targetID,
			})
		}

		if s.dryRun && (IsSyntheticID(userID) || IsSyntheticID(fightID)) {
			record(SyntheticID())
			rep.Created++
			continue
		}

		existing, err := s.reviews.FindReview(ctx, userID, fightID)
		switch {
		case err == nil && existing != nil:
			record(existing.ID)
			rep.Existed++
			continue
		case err != nil && !fperrors.IsNotFound(err):
			s.logger.Error("review lookup failed", logging.Err(err), logging.F("legacy_id", lr.ID))
			rep.Errors++
			continue
		}

		if s.dryRun {
			record(SyntheticID())
			rep.Created++
			continue
		}

		rv := &store.Review{
			UserID:  userID,
			FightID: fightID,
			Title:   strings.TrimSpace(lr.Title.String()),
			Body:    lr.Body.String(),
		}
		if err := s.reviews.CreateReview(ctx, rv); err != nil {
			if fperrors.IsConflict(err) {
				if winner, ferr := s.reviews.FindReview(ctx, userID, fightID); ferr == nil {
					record(winner.ID)
					rep.Existed++
					continue
				}
			}
			s.logger.Error("review create failed", logging.Err(err), logging.F("legacy_id", lr.ID))
			rep.Errors++
			continue
		}
		record(rv.ID)
		rep.Created++
	}

	rep.Finish()
	return res, nil
}
