package migrate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/migrate/events"
	"github.com/fightpulse/migrate-cli/pkg/migrate/observability"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
)

// Stage names, in pipeline order.
const (
	StageEvents   = "events"
	StageFighters = "fighters"
	StageFights   = "fights"
	StageUsers    = "users"
	StageRatings  = "ratings"
	StageTags     = "tags"
	StageReviews  = "reviews"
	StageUpvotes  = "review-upvotes"
)

// Stage numbers as exposed on the CLI (--step / --only).
const (
	StepEvents = iota + 1
	StepFighters
	StepFights
	StepUsers
	StepRatings
	StepTags
	StepReviews
	StepUpvotes

	stepMax = StepUpvotes
)

// Options configures one migration run.
type Options struct {
	// DryRun simulates the run: identical match statistics, no writes
	// to the record store and no artifact files.
	DryRun bool
	// Limit processes only the first N records of each legacy input
	// file. Zero means no limit.
	Limit int
	// Step resumes the pipeline from the given stage number.
	Step int
	// Only runs a single stage. Zero means run all selected stages.
	Only int
	// OutDir is where mapping artifacts are written and read.
	OutDir string
}

// Validate checks the stage selection flags.
func (o Options) Validate() error {
	if o.Step < 0 || o.Step > stepMax {
		return fmt.Errorf("--step must be between 1 and %d: %w", stepMax, fperrors.ErrValidation)
	}
	if o.Only < 0 || o.Only > stepMax {
		return fmt.Errorf("--only must be between 1 and %d: %w", stepMax, fperrors.ErrValidation)
	}
	return nil
}

// Orchestrator runs the migration stages in strict dependency order:
// events, fighters, fights, users, ratings, tags, reviews, upvotes.
// The review and upvote stages are isolated: their failure is logged
// and the run proceeds.
type Orchestrator struct {
	stores    Stores
	reader    *legacy.Reader
	logger    logging.Logger
	metrics   *observability.MigrationMetrics
	tracer    *observability.Tracer
	publisher *events.Publisher
	opts      Options
}

// NewOrchestrator creates an orchestrator. metrics and publisher may
// be nil to disable them.
func NewOrchestrator(stores Stores, reader *legacy.Reader, logger logging.Logger, metrics *observability.MigrationMetrics, publisher *events.Publisher, opts Options) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Step == 0 {
		opts.Step = StepEvents
	}
	return &Orchestrator{
		stores:    stores,
		reader:    reader,
		logger:    logger.With(logging.F("component", "orchestrator")),
		metrics:   metrics,
		tracer:    observability.NewTracer(),
		publisher: publisher,
		opts:      opts,
	}
}

// runState is the in-memory pipeline state handed from stage to stage
// within one process. A stage whose upstream did not run in-process
// rebuilds its inputs from the target store or the persisted mapping
// artifacts.
type runState struct {
	fights []legacy.Fight

	eventIDs   map[string]string // normalize.EventKey -> target id
	fighterIDs map[string]string // normalize.FighterKey -> target id
	fightIDs   map[int64]string  // legacy fight id -> target id
	userMaps   *UserMaps
	reviewIDs  map[int64]string // legacy review id -> target id
}

func limitSlice[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// Run executes the selected stages. The returned error is non-nil only
// for fatal conditions (a missing prerequisite artifact, or the store
// being unreachable); per-record skips and errors are reported, not
// fatal.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		DryRun:    o.opts.DryRun,
		Stages:    []*StageReport{},
		StartedAt: time.Now().UTC(),
	}
	ctx, runSpan := o.tracer.StartRunSpan(ctx, o.opts.DryRun)
	defer runSpan.End()

	st := &runState{}

	type stageDef struct {
		num      int
		name     string
		isolated bool
		run      func(context.Context, *runState) (*StageReport, error)
	}
	stages := []stageDef{
		{StepEvents, StageEvents, false, o.runEvents},
		{StepFighters, StageFighters, false, o.runFighters},
		{StepFights, StageFights, false, o.runFights},
		{StepUsers, StageUsers, false, o.runUsers},
		{StepRatings, StageRatings, false, o.runRatings},
		{StepTags, StageTags, false, o.runTags},
		{StepReviews, StageReviews, true, o.runReviews},
		{StepUpvotes, StageUpvotes, true, o.runUpvotes},
	}

	for _, def := range stages {
		if def.num < o.opts.Step {
			continue
		}
		if o.opts.Only != 0 && o.opts.Only != def.num {
			continue
		}

		o.logger.Info("stage starting",
			logging.F("stage", def.name),
			logging.F("step", def.num),
			logging.F("dry_run", o.opts.DryRun))

		stageCtx, span := o.tracer.StartStageSpan(ctx, def.name)
		rep, err := def.run(stageCtx, st)
		if rep != nil {
			observability.EndStageSpan(span, rep.Total, rep.Created, rep.Existed, rep.SkippedTotal(), rep.Errors, err)
		} else {
			observability.EndStageSpan(span, 0, 0, 0, 0, 0, err)
		}

		if err != nil {
			// A missing prerequisite artifact is the one fatal
			// condition, even inside an isolated stage.
			if def.isolated && !fperrors.IsMissingArtifact(err) {
				o.logger.Error("isolated stage failed, continuing",
					logging.Err(err), logging.F("stage", def.name))
				if rep != nil {
					report.Stages = append(report.Stages, rep.Finish())
				}
				continue
			}
			report.FailedStage = def.name
			report.CompletedAt = time.Now().UTC()
			o.recordRun("failed")
			o.publishRun(ctx, report, false)
			return report, fmt.Errorf("stage %s: %w", def.name, err)
		}

		report.Stages = append(report.Stages, rep)
		o.recordStage(rep)
		o.publishStage(ctx, rep)
		o.logger.Info("stage completed",
			logging.F("stage", def.name),
			logging.F("total", rep.Total),
			logging.F("created", rep.Created),
			logging.F("already_existed", rep.Existed),
			logging.F("skipped", rep.SkippedTotal()),
			logging.F("errors", rep.Errors))
	}

	report.CompletedAt = time.Now().UTC()
	o.recordRun("succeeded")
	o.publishRun(ctx, report, true)
	return report, nil
}

// ---- stage runners ----

func (o *Orchestrator) loadFights(st *runState) error {
	if st.fights != nil {
		return nil
	}
	fights, err := o.reader.Fights()
	if err != nil {
		return err
	}
	st.fights = limitSlice(fights, o.opts.Limit)
	return nil
}

func (o *Orchestrator) runEvents(ctx context.Context, st *runState) (*StageReport, error) {
	if err := o.loadFights(st); err != nil {
		return nil, err
	}
	stage := NewEventStage(o.stores, o.logger, o.opts.DryRun)
	ids, rep, err := stage.Run(ctx, st.fights)
	if err != nil {
		return rep, err
	}
	st.eventIDs = ids
	return rep, nil
}

func (o *Orchestrator) runFighters(ctx context.Context, st *runState) (*StageReport, error) {
	if err := o.loadFights(st); err != nil {
		return nil, err
	}
	stage := NewFighterStage(o.stores, o.logger, o.opts.DryRun)
	ids, rep, err := stage.Run(ctx, st.fights)
	if err != nil {
		return rep, err
	}
	st.fighterIDs = ids
	return rep, nil
}

func (o *Orchestrator) runFights(ctx context.Context, st *runState) (*StageReport, error) {
	if err := o.loadFights(st); err != nil {
		return nil, err
	}
	if err := o.ensureEventIDs(ctx, st); err != nil {
		return nil, err
	}
	if err := o.ensureFighterIDs(ctx, st); err != nil {
		return nil, err
	}

	stage := NewFightStage(o.stores, o.stores, o.stores, o.logger, o.opts.DryRun)
	res, err := stage.Run(ctx, FightStageInput{
		Fights:     st.fights,
		EventIDs:   st.eventIDs,
		FighterIDs: st.fighterIDs,
	})
	if err != nil {
		return nil, err
	}

	st.fightIDs = make(map[int64]string, res.Mapping.Len())
	res.Mapping.Each(func(legacyID int64, targetID string) {
		st.fightIDs[legacyID] = targetID
	})

	if !o.opts.DryRun {
		if err := mapping.Save(filepath.Join(o.opts.OutDir, mapping.FightMappingFile), res.Entries); err != nil {
			return res.Report, err
		}
		if err := mapping.Save(filepath.Join(o.opts.OutDir, mapping.UnmatchedFightsFile), res.Unmatched); err != nil {
			return res.Report, err
		}
	}
	if len(res.Unmatched.Fights) > 0 {
		o.logger.Warn("unmatched fights",
			logging.F("count", len(res.Unmatched.Fights)),
			logging.F("by_promotion", res.Unmatched.ByPromotion))
	}
	return res.Report, nil
}

func (o *Orchestrator) runUsers(ctx context.Context, st *runState) (*StageReport, error) {
	users, err := o.reader.Users()
	if err != nil {
		return nil, err
	}
	stage := NewUserStage(o.stores, o.logger, o.opts.DryRun)
	res, err := stage.Run(ctx, limitSlice(users, o.opts.Limit))
	if err != nil {
		return nil, err
	}
	st.userMaps = res.Maps

	if !o.opts.DryRun {
		if err := mapping.Save(filepath.Join(o.opts.OutDir, mapping.UserMappingFile), res.Entries); err != nil {
			return res.Report, err
		}
	}
	return res.Report, nil
}

func (o *Orchestrator) runRatings(ctx context.Context, st *runState) (*StageReport, error) {
	ratings, err := o.reader.Ratings()
	if err != nil {
		return nil, err
	}
	if err := o.ensureFightIDs(st); err != nil {
		return nil, err
	}
	if err := o.ensureUserMaps(st); err != nil {
		return nil, err
	}
	stage := NewRatingStage(o.stores, o.logger, o.opts.DryRun)
	return stage.Run(ctx, limitSlice(ratings, o.opts.Limit), st.fightIDs, st.userMaps)
}

func (o *Orchestrator) runTags(ctx context.Context, st *runState) (*StageReport, error) {
	votes, err := o.reader.TagVotes()
	if err != nil {
		return nil, err
	}
	if err := o.ensureFightIDs(st); err != nil {
		return nil, err
	}
	if err := o.ensureUserMaps(st); err != nil {
		return nil, err
	}

	mapper := NewTaxonomyMapper(o.stores, o.logger, o.opts.DryRun)
	tagIDs, err := mapper.EnsureCanonical(ctx)
	if err != nil {
		return nil, err
	}
	if !o.opts.DryRun {
		if err := mapping.Save(filepath.Join(o.opts.OutDir, mapping.TagMappingFile), tagIDs); err != nil {
			return nil, err
		}
	}

	stage := NewTagStage(o.stores, o.logger, o.opts.DryRun)
	return stage.Run(ctx, limitSlice(votes, o.opts.Limit), tagIDs, st.fightIDs, st.userMaps)
}

func (o *Orchestrator) runReviews(ctx context.Context, st *runState) (*StageReport, error) {
	reviews, err := o.reader.Reviews()
	if err != nil {
		return nil, err
	}
	if err := o.ensureFightIDs(st); err != nil {
		return nil, err
	}
	if err := o.ensureUserMaps(st); err != nil {
		return nil, err
	}
	stage := NewReviewStage(o.stores, o.logger, o.opts.DryRun)
	res, err := stage.Run(ctx, limitSlice(reviews, o.opts.Limit), st.fightIDs, st.userMaps)
	if err != nil {
		return nil, err
	}

	st.reviewIDs = make(map[int64]string, len(res.Entries))
	for _, e := range res.Entries {
		st.reviewIDs[e.LegacyID] = e.NewID
	}

	if !o.opts.DryRun {
		if err := mapping.Save(filepath.Join(o.opts.OutDir, mapping.ReviewMappingFile), res.Entries); err != nil {
			return res.Report, err
		}
	}
	return res.Report, nil
}

func (o *Orchestrator) runUpvotes(ctx context.Context, st *runState) (*StageReport, error) {
	upvotes, err := o.reader.ReviewUpvotes()
	if err != nil {
		return nil, err
	}
	if err := o.ensureReviewIDs(st); err != nil {
		return nil, err
	}
	if err := o.ensureUserMaps(st); err != nil {
		return nil, err
	}
	stage := NewUpvoteStage(o.stores, o.logger, o.opts.DryRun)
	return stage.Run(ctx, limitSlice(upvotes, o.opts.Limit), st.reviewIDs, st.userMaps)
}

// ---- resume helpers ----
//
// When a stage is skipped via --step or --only, its downstream
// consumers rebuild the maps it would have produced: the event and
// fighter id maps from the current state of the target store, the rest
// from the persisted mapping artifacts.

func (o *Orchestrator) ensureEventIDs(ctx context.Context, st *runState) error {
	if st.eventIDs != nil {
		return nil
	}
	targets, err := o.stores.ListEvents(ctx)
	if err != nil {
		return err
	}
	ids := make(map[string]string, len(targets))
	for _, e := range targets {
		key := normalize.EventKey(e.Promotion, e.Name, e.Date.UTC().Format("2006-01-02"))
		if _, taken := ids[key]; !taken {
			ids[key] = e.ID
		}
	}
	st.eventIDs = ids
	return nil
}

func (o *Orchestrator) ensureFighterIDs(ctx context.Context, st *runState) error {
	if st.fighterIDs != nil {
		return nil
	}
	targets, err := o.stores.ListFighters(ctx)
	if err != nil {
		return err
	}
	ids := make(map[string]string, len(targets))
	for _, f := range targets {
		key := normalize.FighterKey(f.FirstName, f.LastName)
		if _, taken := ids[key]; !taken {
			ids[key] = f.ID
		}
	}
	st.fighterIDs = ids
	return nil
}

func (o *Orchestrator) ensureFightIDs(st *runState) error {
	if st.fightIDs != nil {
		return nil
	}
	entries, err := mapping.LoadFightEntries(o.opts.OutDir)
	if err != nil {
		return err
	}
	ids := make(map[int64]string, len(entries))
	for _, e := range entries {
		ids[e.LegacyID] = e.NewID
	}
	st.fightIDs = ids
	return nil
}

func (o *Orchestrator) ensureUserMaps(st *runState) error {
	if st.userMaps != nil {
		return nil
	}
	entries, err := mapping.LoadUserEntries(o.opts.OutDir)
	if err != nil {
		return err
	}
	st.userMaps = RebuildUserMaps(entries)
	return nil
}

func (o *Orchestrator) ensureReviewIDs(st *runState) error {
	if st.reviewIDs != nil {
		return nil
	}
	entries, err := mapping.LoadReviewEntries(o.opts.OutDir)
	if err != nil {
		return err
	}
	ids := make(map[int64]string, len(entries))
	for _, e := range entries {
		ids[e.LegacyID] = e.NewID
	}
	st.reviewIDs = ids
	return nil
}

// ---- observability plumbing ----

func (o *Orchestrator) recordStage(rep *StageReport) {
	if o.metrics == nil || rep == nil {
		return
	}
	seconds := rep.CompletedAt.Sub(rep.StartedAt).Seconds()
	o.metrics.RecordStage(rep.Stage, rep.Created, rep.Existed, rep.SkippedTotal(), rep.Errors, seconds)
	o.metrics.RecordMatching(rep.Stage, rep.FuzzyMatches, rep.Collisions)
}

func (o *Orchestrator) recordRun(status string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordRun(status, o.opts.DryRun)
}

func (o *Orchestrator) publishStage(ctx context.Context, rep *StageReport) {
	if o.publisher == nil || rep == nil {
		return
	}
	evt := events.StageCompletedEvent{
		Stage:        rep.Stage,
		DryRun:       o.opts.DryRun,
		Total:        rep.Total,
		Created:      rep.Created,
		Existed:      rep.Existed,
		Skipped:      rep.SkippedTotal(),
		Errors:       rep.Errors,
		FuzzyMatches: rep.FuzzyMatches,
		Collisions:   rep.Collisions,
		StartedAt:    rep.StartedAt,
		CompletedAt:  rep.CompletedAt,
	}
	if err := o.publisher.PublishStageCompleted(ctx, evt); err != nil {
		o.logger.Warn("stage event publish failed", logging.Err(err))
	}
}

func (o *Orchestrator) publishRun(ctx context.Context, report *RunReport, success bool) {
	if o.publisher == nil {
		return
	}
	evt := events.RunCompletedEvent{
		DryRun:      report.DryRun,
		Success:     success,
		FailedStage: report.FailedStage,
		Stages:      len(report.Stages),
		StartedAt:   report.StartedAt,
		CompletedAt: report.CompletedAt,
	}
	if err := o.publisher.PublishRunCompleted(ctx, evt); err != nil {
		o.logger.Warn("run event publish failed", logging.Err(err))
	}
}
