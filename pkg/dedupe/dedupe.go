// Package dedupe repairs duplicate records created before the target
// schema gained its uniqueness constraints. It runs independently of
// the migration pipeline, against the target store alone: fighters
// first, then events, then fights, so that fighter and event
// canonicalization has already rewritten the fight foreign keys before
// the fight pass groups by them.
package dedupe

import (
	"context"
	"sort"

	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// Store is the target-store surface the pass needs.
type Store interface {
	ListFighters(ctx context.Context) ([]store.Fighter, error)
	ListEvents(ctx context.Context) ([]store.Event, error)
	ListFights(ctx context.Context) ([]store.Fight, error)
	UpdateFightRefs(ctx context.Context, fightID, eventID, fighter1ID, fighter2ID string) error
	DeleteFighter(ctx context.Context, id string) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteFight(ctx context.Context, id string) error
}

// Report counts what one pass did (or, in dry-run, would have done).
type Report struct {
	DryRun bool `json:"dryRun"`

	DuplicateFighters int `json:"duplicateFighters"`
	DuplicateEvents   int `json:"duplicateEvents"`
	DuplicateFights   int `json:"duplicateFights"`
	RewrittenFights   int `json:"rewrittenFights"`
	Errors            int `json:"errors"`
}

// Changed reports whether the pass found any duplicates.
func (r *Report) Changed() bool {
	return r.DuplicateFighters+r.DuplicateEvents+r.DuplicateFights > 0
}

// Pass is one deduplication run.
type Pass struct {
	store  Store
	logger logging.Logger
	dryRun bool
}

// NewPass creates a deduplication pass.
func NewPass(s Store, logger logging.Logger, dryRun bool) *Pass {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pass{store: s, logger: logger.With(logging.F("component", "dedupe")), dryRun: dryRun}
}

// canonicalFirst orders records so the earliest-created comes first;
// ties break on id so the ordering is stable across runs.
func canonicalFirst[T any](records []T, created func(T) int64, id func(T) string) {
	sort.SliceStable(records, func(i, j int) bool {
		ci, cj := created(records[i]), created(records[j])
		if ci != cj {
			return ci < cj
		}
		return id(records[i]) < id(records[j])
	})
}

// Run executes the three sub-passes in order. A second run against the
// same store finds nothing to do.
func (p *Pass) Run(ctx context.Context) (*Report, error) {
	rep := &Report{DryRun: p.dryRun}

	if err := p.dedupeFighters(ctx, rep); err != nil {
		return rep, err
	}
	if err := p.dedupeEvents(ctx, rep); err != nil {
		return rep, err
	}
	if err := p.dedupeFights(ctx, rep); err != nil {
		return rep, err
	}

	p.logger.Info("deduplication pass complete",
		logging.F("dry_run", p.dryRun),
		logging.F("duplicate_fighters", rep.DuplicateFighters),
		logging.F("duplicate_events", rep.DuplicateEvents),
		logging.F("duplicate_fights", rep.DuplicateFights),
		logging.F("rewritten_fights", rep.RewrittenFights),
		logging.F("errors", rep.Errors))
	return rep, nil
}

// dedupeFighters groups fighters by normalized (firstName, lastName),
// keeps the earliest-created record per group, rewrites fight foreign
// keys that reference the duplicates, then deletes the duplicates.
func (p *Pass) dedupeFighters(ctx context.Context, rep *Report) error {
	fighters, err := p.store.ListFighters(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]store.Fighter)
	for _, f := range fighters {
		key := normalize.FighterKey(f.FirstName, f.LastName)
		if !normalize.ValidFighterKey(key) {
			continue
		}
		groups[key] = append(groups[key], f)
	}

	redirect := make(map[string]string) // duplicate id -> canonical id
	var doomed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		canonicalFirst(group,
			func(f store.Fighter) int64 { return f.CreatedAt.UnixNano() },
			func(f store.Fighter) string { return f.ID })
		canonical := group[0]
		for _, dup := range group[1:] {
			redirect[dup.ID] = canonical.ID
			doomed = append(doomed, dup.ID)
			p.logger.Info("duplicate fighter",
				logging.F("canonical_id", canonical.ID),
				logging.F("duplicate_id", dup.ID),
				logging.F("name", dup.FirstName+" "+dup.LastName))
		}
	}
	rep.DuplicateFighters = len(doomed)
	if len(doomed) == 0 || p.dryRun {
		return nil
	}

	if err := p.rewriteFightRefs(ctx, rep, func(f *store.Fight) bool {
		changed := false
		if to, ok := redirect[f.Fighter1ID]; ok {
			f.Fighter1ID = to
			changed = true
		}
		if to, ok := redirect[f.Fighter2ID]; ok {
			f.Fighter2ID = to
			changed = true
		}
		return changed
	}); err != nil {
		return err
	}

	for _, id := range doomed {
		if err := p.store.DeleteFighter(ctx, id); err != nil {
			p.logger.Error("fighter delete failed", logging.Err(err), logging.F("id", id))
			rep.Errors++
		}
	}
	return nil
}

// dedupeEvents does the same for events grouped by normalized name and
// day. Promotion is excluded on purpose: promotion strings drift
// between sources, and (name, day) is the uniqueness the repair
// enforces.
func (p *Pass) dedupeEvents(ctx context.Context, rep *Report) error {
	targetEvents, err := p.store.ListEvents(ctx)
	if err != nil {
		return err
	}

	groups := make(map[string][]store.Event)
	for _, e := range targetEvents {
		key := normalize.Name(e.Name) + normalize.KeySep + e.Date.UTC().Format("2006-01-02")
		groups[key] = append(groups[key], e)
	}

	redirect := make(map[string]string)
	var doomed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		canonicalFirst(group,
			func(e store.Event) int64 { return e.CreatedAt.UnixNano() },
			func(e store.Event) string { return e.ID })
		canonical := group[0]
		for _, dup := range group[1:] {
			redirect[dup.ID] = canonical.ID
			doomed = append(doomed, dup.ID)
			p.logger.Info("duplicate event",
				logging.F("canonical_id", canonical.ID),
				logging.F("duplicate_id", dup.ID),
				logging.F("name", dup.Name))
		}
	}
	rep.DuplicateEvents = len(doomed)
	if len(doomed) == 0 || p.dryRun {
		return nil
	}

	if err := p.rewriteFightRefs(ctx, rep, func(f *store.Fight) bool {
		if to, ok := redirect[f.EventID]; ok {
			f.EventID = to
			return true
		}
		return false
	}); err != nil {
		return err
	}

	for _, id := range doomed {
		if err := p.store.DeleteEvent(ctx, id); err != nil {
			p.logger.Error("event delete failed", logging.Err(err), logging.F("id", id))
			rep.Errors++
		}
	}
	return nil
}

// dedupeFights groups fights by (eventId, fighter1Id, fighter2Id) and
// deletes all but the first per group. The grouping is order-sensitive:
// fighter ids were canonicalized by the earlier sub-passes, so storage
// order is consistent by the time this runs.
func (p *Pass) dedupeFights(ctx context.Context, rep *Report) error {
	fights, err := p.store.ListFights(ctx)
	if err != nil {
		return err
	}

	type key struct{ eventID, f1, f2 string }
	groups := make(map[key][]store.Fight)
	for _, f := range fights {
		k := key{f.EventID, f.Fighter1ID, f.Fighter2ID}
		groups[k] = append(groups[k], f)
	}

	var doomed []string
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		canonicalFirst(group,
			func(f store.Fight) int64 { return f.CreatedAt.UnixNano() },
			func(f store.Fight) string { return f.ID })
		for _, dup := range group[1:] {
			doomed = append(doomed, dup.ID)
			p.logger.Info("duplicate fight",
				logging.F("canonical_id", group[0].ID),
				logging.F("duplicate_id", dup.ID))
		}
	}
	rep.DuplicateFights = len(doomed)
	if len(doomed) == 0 || p.dryRun {
		return nil
	}

	for _, id := range doomed {
		if err := p.store.DeleteFight(ctx, id); err != nil {
			p.logger.Error("fight delete failed", logging.Err(err), logging.F("id", id))
			rep.Errors++
		}
	}
	return nil
}

// rewriteFightRefs applies the redirect function to every fight and
// persists the ones it changed.
func (p *Pass) rewriteFightRefs(ctx context.Context, rep *Report, apply func(*store.Fight) bool) error {
	fights, err := p.store.ListFights(ctx)
	if err != nil {
		return err
	}
	for i := range fights {
		f := &fights[i]
		if !apply(f) {
			continue
		}
		if err := p.store.UpdateFightRefs(ctx, f.ID, f.EventID, f.Fighter1ID, f.Fighter2ID); err != nil {
			p.logger.Error("fight ref rewrite failed", logging.Err(err), logging.F("id", f.ID))
			rep.Errors++
			continue
		}
		rep.RewrittenFights++
	}
	return nil
}
