package migrate

import (
	"context"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// UpvoteStage migrates review upvotes. Like the review stage it is
// isolated from the rest of the run.
type UpvoteStage struct {
	upvotes ReviewUpvoteStore
	logger  logging.Logger
	dryRun  bool
}

// NewUpvoteStage creates the upvote stage.
func NewUpvoteStage(upvotes ReviewUpvoteStore, logger logging.Logger, dryRun bool) *UpvoteStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UpvoteStage{
		upvotes: upvotes,
		logger:  logger.With(logging.F("stage", StageUpvotes)),
		dryRun:  dryRun,
	}
}

// Run migrates the legacy upvotes. reviewIDs is the legacy-review-id
// to target-review-id map from the review stage (or its artifact).
func (s *UpvoteStage) Run(ctx context.Context, upvotes []legacy.ReviewUpvote, reviewIDs map[int64]string, users *UserMaps) (*StageReport, error) {
	rep := NewStageReport(StageUpvotes)
	rep.Total = len(upvotes)

	type pair struct{ reviewID, userID string }
	seen := make(map[pair]struct{}, len(upvotes))

	for i := range upvotes {
		uv := &upvotes[i]

		reviewID, ok := reviewIDs[uv.ReviewID]
		if !ok {
			rep.Skip(SkipNoReview)
			continue
		}
		userID, ok := users.Resolve(uv.Email.String(), uv.EmailHash.String())
		if !ok {
			rep.Skip(SkipNoUser)
			continue
		}
		key := pair{reviewID, userID}
		if _, dup := seen[key]; dup {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[key] = struct{}{}

		if s.dryRun && (IsSyntheticID(reviewID) || IsSyntheticID(userID)) {
			rep.Created++
			continue
		}

		existing, err := s.upvotes.FindReviewUpvote(ctx, reviewID, userID)
		switch {
		case err == nil && existing != nil:
			rep.Existed++
			continue
		case err != nil && !fperrors.IsNotFound(err):
			s.logger.Error("upvote lookup failed", logging.Err(err), logging.F("legacy_id", uv.ID))
			rep.Errors++
			continue
		}

		if s.dryRun {
			rep.Created++
			continue
		}

		row := &store.ReviewUpvote{
			ReviewID: reviewID,
			UserID:   userID,
		}
		if err := s.upvotes.CreateReviewUpvote(ctx, row); err != nil {
			if fperrors.IsConflict(err) {
				rep.Existed++
				continue
			}
			s.logger.Error("upvote create failed", logging.Err(err), logging.F("legacy_id", uv.ID))
			rep.Errors++
			continue
		}
		rep.Created++
	}

	rep.Finish()
	return rep, nil
}
