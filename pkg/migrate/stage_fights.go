package migrate

import (
	"context"
	"strings"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/match"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// FightStage reconciles legacy fights against the target store and
// builds the fight mapping consumed by every later stage.
type FightStage struct {
	fights   FightStore
	fighters FighterStore
	events   EventStore
	logger   logging.Logger
	dryRun   bool
}

// NewFightStage creates the fight stage.
func NewFightStage(fights FightStore, fighters FighterStore, events EventStore, logger logging.Logger, dryRun bool) *FightStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FightStage{
		fights:   fights,
		fighters: fighters,
		events:   events,
		logger:   logger.With(logging.F("stage", StageFights)),
		dryRun:   dryRun,
	}
}

// FightStageInput carries the legacy records plus the id maps resolved
// by the event and fighter stages (or rebuilt from the store when
// resuming).
type FightStageInput struct {
	Fights     []legacy.Fight
	EventIDs   map[string]string // normalize.EventKey -> target event id
	FighterIDs map[string]string // normalize.FighterKey -> target fighter id
}

// FightStageResult is the stage output: the id ledger, the mapping
// artifact entries, and the unmatched-records report.
type FightStageResult struct {
	Mapping   *mapping.Store
	Entries   []mapping.FightEntry
	Unmatched *mapping.UnmatchedReport
	Report    *StageReport
}

// buildIndex enumerates all already-migrated target fights and indexes
// them under both fighter-order permutations of the exact key, plus
// the relaxed last-name+date fallback keys.
func (s *FightStage) buildIndex(ctx context.Context) (*match.Index, error) {
	fighters, err := s.fighters.ListFighters(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	fights, err := s.fights.ListFights(ctx)
	if err != nil {
		return nil, err
	}

	fightersByID := make(map[string]store.Fighter, len(fighters))
	for _, f := range fighters {
		fightersByID[f.ID] = f
	}
	eventsByID := make(map[string]store.Event, len(events))
	for _, e := range events {
		eventsByID[e.ID] = e
	}

	ix := match.NewIndex(s.logger)
	for _, tf := range fights {
		f1, ok1 := fightersByID[tf.Fighter1ID]
		f2, ok2 := fightersByID[tf.Fighter2ID]
		ev, ok3 := eventsByID[tf.EventID]
		if !ok1 || !ok2 || !ok3 {
			// Dangling references; the deduplication pass repairs
			// these, matching cannot use them.
			continue
		}
		day := ev.Date.UTC().Format("2006-01-02")
		k1 := normalize.FighterKey(f1.FirstName, f1.LastName)
		k2 := normalize.FighterKey(f2.FirstName, f2.LastName)
		ix.InsertExact(normalize.FightKey(k1, k2, day), tf.ID)
		ix.InsertExact(normalize.FightKey(k2, k1, day), tf.ID)
		ix.InsertRelaxed(normalize.RelaxedFightKey(f1.LastName, f2.LastName, day), tf.ID)
		ix.InsertRelaxed(normalize.RelaxedFightKey(f2.LastName, f1.LastName, day), tf.ID)
	}
	return ix, nil
}

// Run reconciles the legacy fights. Matching per record: exact
// composite key, then relaxed last-name+date in both orderings, then
// create when the event and both fighters resolved, otherwise the
// record lands in the unmatched report under its reason.
func (s *FightStage) Run(ctx context.Context, in FightStageInput) (*FightStageResult, error) {
	rep := NewStageReport(StageFights)
	res := &FightStageResult{
		Mapping:   mapping.NewStore(),
		Entries:   []mapping.FightEntry{},
		Unmatched: mapping.NewUnmatchedReport(),
		Report:    rep,
	}

	ix, err := s.buildIndex(ctx)
	if err != nil {
		return nil, err
	}

	rep.Total = len(in.Fights)
	for i := range in.Fights {
		lf := &in.Fights[i]

		name1 := fighterDisplayName(lf.Fighter1())
		name2 := fighterDisplayName(lf.Fighter2())
		rawDate := strings.TrimSpace(lf.Date.String())
		unmatched := func(reason string) {
			res.Unmatched.Add(mapping.UnmatchedFight{
				LegacyID:     lf.ID,
				Fighter1Name: name1,
				Fighter2Name: name2,
				Date:         rawDate,
				EventName:    strings.TrimSpace(lf.EventName.String()),
				Promotion:    strings.TrimSpace(lf.Promotion.String()),
				Reason:       reason,
			})
		}
		record := func(targetID, kind string) bool {
			if err := res.Mapping.Assign(lf.ID, targetID); err != nil {
				// Same legacy id seen twice in the input.
				rep.Skip(SkipDuplicate)
				return false
			}
			res.Entries = append(res.Entries, mapping.FightEntry{
				LegacyID:     lf.ID,
				NewID:        targetID,
				Fighter1Name: name1,
				Fighter2Name: name2,
				Date:         rawDate,
				EventName:    strings.TrimSpace(lf.EventName.String()),
				MatchKind:    kind,
			})
			return true
		}

		if lf.Deleted.Bool() {
			rep.Skip(SkipDeleted)
			continue
		}
		if _, err := parseDay(rawDate); err != nil {
			rep.Skip(SkipInvalidDate)
			unmatched(SkipInvalidDate)
			continue
		}

		k1 := normalize.FighterKey(lf.Fighter1First.String(), lf.Fighter1Last.String())
		k2 := normalize.FighterKey(lf.Fighter2First.String(), lf.Fighter2Last.String())

		// Both exact permutations are already in the index; one exact
		// lookup suffices. The relaxed legs try both orderings.
		m := ix.Lookup(
			normalize.FightKey(k1, k2, rawDate),
			normalize.RelaxedFightKey(lf.Fighter1Last.String(), lf.Fighter2Last.String(), rawDate),
			normalize.RelaxedFightKey(lf.Fighter2Last.String(), lf.Fighter1Last.String(), rawDate),
		)

		switch m.Kind {
		case match.Exact:
			if record(m.TargetID, "exact") {
				rep.Existed++
			}
		case match.Fuzzy:
			if record(m.TargetID, "fuzzy") {
				rep.Existed++
				rep.FuzzyMatches++
				res.Unmatched.AddFuzzy(res.Entries[len(res.Entries)-1])
				s.logger.Info("fuzzy fight match",
					logging.F("legacy_id", lf.ID),
					logging.F("target_id", m.TargetID),
					logging.F("fighters", name1+" vs "+name2),
					logging.F("date", rawDate))
			}
		default:
			s.createFight(ctx, lf, in, ix, rep, record, unmatched, k1, k2)
		}
	}

	rep.Collisions = ix.Collisions()
	rep.Finish()
	return res, nil
}

// createFight handles the no-match leg: create the target fight when
// all dependencies resolved, otherwise count and report the reason.
func (s *FightStage) createFight(
	ctx context.Context,
	lf *legacy.Fight,
	in FightStageInput,
	ix *match.Index,
	rep *StageReport,
	record func(targetID, kind string) bool,
	unmatched func(reason string),
	k1, k2 string,
) {
	rawDate := strings.TrimSpace(lf.Date.String())
	evKey := normalize.EventKey(lf.Promotion.String(), lf.EventName.String(), rawDate)
	eventID, okEvent := in.EventIDs[evKey]
	if !okEvent {
		rep.Skip(SkipNoEvent)
		unmatched(SkipNoEvent)
		return
	}

	f1ID, ok1 := in.FighterIDs[k1]
	f2ID, ok2 := in.FighterIDs[k2]
	if !normalize.ValidFighterKey(k1) || !normalize.ValidFighterKey(k2) || !ok1 || !ok2 {
		rep.Skip(SkipNoFighter)
		unmatched(SkipNoFighter)
		return
	}

	if s.dryRun {
		if record(SyntheticID(), "created") {
			rep.Created++
		}
		return
	}

	tf := &store.Fight{
		EventID:     eventID,
		Fighter1ID:  f1ID,
		Fighter2ID:  f2ID,
		WeightClass: weightClassFromLegacy(lf.WeightClass.String()),
		IsTitle:     lf.IsTitle.Bool(),
		CardType:    cardTypeFromPosition(lf.CardPosition.Int()),
		Winner:      winnerFromLegacy(lf.Winner),
		Method:      strings.TrimSpace(lf.Method.String()),
		Round:       lf.Round.Int(),
		Time:        strings.TrimSpace(lf.Time.String()),
		AvgRating:   lf.Score.Float(),
		RatingCount: lf.Votes.Int(),
	}

	if err := s.fights.CreateFight(ctx, tf); err != nil {
		if fperrors.IsConflict(err) {
			// The unordered (eventId, fighter pair) triple already
			// exists; re-query both orders and adopt the winner.
			if winner, ferr := s.fights.FindFight(ctx, eventID, f1ID, f2ID); ferr == nil {
				ix.Claim(winner.ID)
				if record(winner.ID, "exact") {
					rep.Existed++
				}
				return
			}
		}
		s.logger.Error("fight create failed", logging.Err(err), logging.F("legacy_id", lf.ID))
		rep.Errors++
		return
	}
	ix.Claim(tf.ID)
	if record(tf.ID, "created") {
		rep.Created++
	}
}

func fighterDisplayName(ref legacy.FighterRef) string {
	return strings.TrimSpace(strings.TrimSpace(ref.FirstName.String()) + " " + strings.TrimSpace(ref.LastName.String()))
}

// Weight class enum values on the target schema.
const (
	WeightClassUnknown = "unknown"
	WeightClassCatch   = "catchweight"
)

var weightClasses = map[string]string{
	"strawweight":          "strawweight",
	"flyweight":            "flyweight",
	"bantamweight":         "bantamweight",
	"featherweight":        "featherweight",
	"lightweight":          "lightweight",
	"welterweight":         "welterweight",
	"middleweight":         "middleweight",
	"light heavyweight":    "light_heavyweight",
	"heavyweight":          "heavyweight",
	"super heavyweight":    "super_heavyweight",
	"womens strawweight":   "womens_strawweight",
	"womens flyweight":     "womens_flyweight",
	"womens bantamweight":  "womens_bantamweight",
	"womens featherweight": "womens_featherweight",
	"catchweight":          WeightClassCatch,
	"catch weight":         WeightClassCatch,
	"openweight":           "openweight",
}

// weightClassFromLegacy maps legacy free-text weight classes onto the
// target enum; unmapped text degrades to unknown, never an error.
func weightClassFromLegacy(raw string) string {
	if wc, ok := weightClasses[normalize.Name(raw)]; ok {
		return wc
	}
	return WeightClassUnknown
}

// cardTypeFromPosition maps the legacy card position (1 = top of the
// bill) onto the target card type.
func cardTypeFromPosition(pos int) string {
	switch {
	case pos >= 1 && pos <= 5:
		return store.CardTypeMain
	case pos >= 6 && pos <= 9:
		return store.CardTypePrelim
	case pos > 9:
		return store.CardTypeEarly
	default:
		return store.CardTypeMain
	}
}

// winnerFromLegacy coerces the legacy winner column. Anything outside
// the known encodings (including corrupted rows) degrades to empty.
func winnerFromLegacy(raw legacy.Flex) string {
	switch strings.ToLower(strings.TrimSpace(raw.String())) {
	case "1", "fighter1", "f1":
		return "fighter1"
	case "2", "fighter2", "f2":
		return "fighter2"
	case "draw", "d":
		return "draw"
	case "nc", "no contest":
		return "no_contest"
	}
	return ""
}
