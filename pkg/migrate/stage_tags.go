package migrate

import (
	"context"

	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// fightTagBatchSize is the number of join rows submitted per bulk
// insert. Batching keeps the duplicate-skip semantics of a single
// insert while amortizing round trips over the tens of thousands of
// legacy tag votes.
const fightTagBatchSize = 2000

// TagStage migrates legacy tag votes into (userId, fightId, tagId)
// join rows. It requires the tag mapping from the taxonomy mapper plus
// the fight mapping and user maps.
type TagStage struct {
	fightTags FightTagStore
	logger    logging.Logger
	dryRun    bool
}

// NewTagStage creates the tag stage.
func NewTagStage(fightTags FightTagStore, logger logging.Logger, dryRun bool) *TagStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TagStage{
		fightTags: fightTags,
		logger:    logger.With(logging.F("stage", StageTags)),
		dryRun:    dryRun,
	}
}

type fightTagKey struct {
	userID, fightID, tagID string
}

// Run migrates the tag votes. Rows are de-duplicated against both the
// already-persisted join rows and rows queued earlier in this run,
// then written in fixed-size batches. A failed batch counts its whole
// batch as errors and the stage moves on to the next batch.
func (s *TagStage) Run(ctx context.Context, votes []legacy.TagVote, tagIDs mapping.TagMapping, fightIDs map[int64]string, users *UserMaps) (*StageReport, error) {
	rep := NewStageReport(StageTags)
	rep.Total = len(votes)

	seen := make(map[fightTagKey]struct{})
	existing, err := s.fightTags.ListFightTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, ft := range existing {
		seen[fightTagKey{ft.UserID, ft.FightID, ft.TagID}] = struct{}{}
	}

	var batch []store.FightTag
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if s.dryRun {
			rep.Created += len(batch)
			batch = batch[:0]
			return
		}
		inserted, err := s.fightTags.BulkInsertFightTags(ctx, batch)
		if err != nil {
			s.logger.Error("fight tag batch failed", logging.Err(err), logging.F("batch_size", len(batch)))
			rep.Errors += len(batch)
		} else {
			// Rows the store skipped on a duplicate-key conflict
			// already existed.
			rep.Created += inserted
			rep.Existed += len(batch) - inserted
		}
		batch = batch[:0]
	}

	for i := range votes {
		v := &votes[i]

		tagID, ok := tagIDs[v.TagID.String()]
		if !ok || tagID == "" {
			rep.Skip(SkipNoTag)
			continue
		}
		fightID, ok := fightIDs[v.FightID]
		if !ok {
			rep.Skip(SkipNoFight)
			continue
		}
		userID, ok := users.Resolve(v.Email.String(), v.EmailHash.String())
		if !ok {
			rep.Skip(SkipNoUser)
			continue
		}

		key := fightTagKey{userID, fightID, tagID}
		if _, dup := seen[key]; dup {
			rep.Existed++
			continue
		}
		seen[key] = struct{}{}

		batch = append(batch, store.FightTag{
			UserID:  userID,
			FightID: fightID,
			TagID:   tagID,
		})
		if len(batch) >= fightTagBatchSize {
			flush()
		}
	}
	flush()

	rep.Finish()
	return rep, nil
}
