package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/normalize"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// parseDay parses a legacy YYYY-MM-DD day string as UTC. Legacy
// exports contain sentinel garbage like "0000-00-00"; anything that
// does not parse to a plausible date is rejected.
func parseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < 1880 {
		return time.Time{}, fmt.Errorf("implausible year %d", t.Year())
	}
	return t, nil
}

// EventStage extracts the distinct events referenced by the legacy
// fight records and ensures each exists in the target store.
type EventStage struct {
	events EventStore
	logger logging.Logger
	dryRun bool
}

// NewEventStage creates the event stage.
func NewEventStage(events EventStore, logger logging.Logger, dryRun bool) *EventStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EventStage{events: events, logger: logger.With(logging.F("stage", StageEvents)), dryRun: dryRun}
}

type extractedEvent struct {
	promotion string
	name      string
	date      time.Time
}

// Run processes the legacy fights and returns eventKey -> target event
// id for every event it resolved. The report's Total counts distinct
// extracted events; skip buckets count the source fight rows excluded
// from extraction.
func (s *EventStage) Run(ctx context.Context, fights []legacy.Fight) (map[string]string, *StageReport, error) {
	rep := NewStageReport(StageEvents)
	ids := make(map[string]string)

	var order []string
	byKey := make(map[string]extractedEvent)

	for i := range fights {
		f := &fights[i]
		if f.Deleted.Bool() {
			rep.Skip(SkipDeleted)
			continue
		}
		rawDate := strings.TrimSpace(f.Date.String())
		date, err := parseDay(rawDate)
		if err != nil {
			rep.Skip(SkipInvalidDate)
			continue
		}
		key := normalize.EventKey(f.Promotion.String(), f.EventName.String(), rawDate)
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = extractedEvent{
			promotion: strings.TrimSpace(f.Promotion.String()),
			name:      strings.TrimSpace(f.EventName.String()),
			date:      date,
		}
		order = append(order, key)
	}

	rep.Total = len(order)
	for _, key := range order {
		ev := byKey[key]
		existing, err := s.events.FindEvent(ctx, ev.promotion, ev.name, ev.date)
		if err == nil {
			ids[key] = existing.ID
			rep.Existed++
			continue
		}
		if !fperrors.IsNotFound(err) {
			s.logger.Error("event lookup failed", logging.Err(err), logging.F("event", ev.name))
			rep.Errors++
			continue
		}

		if s.dryRun {
			ids[key] = SyntheticID()
			rep.Created++
			continue
		}

		e := &store.Event{
			Promotion: ev.promotion,
			Name:      ev.name,
			Date:      ev.date,
			// Migrated events are historical: they ran to completion.
			HasStarted: true,
			IsComplete: true,
		}
		if err := s.events.CreateEvent(ctx, e); err != nil {
			if fperrors.IsConflict(err) {
				// Lost a create race; adopt the winner via the
				// (name, date) fallback uniqueness check.
				if winner, ferr := s.events.FindEventByNameDate(ctx, ev.name, ev.date); ferr == nil {
					ids[key] = winner.ID
					rep.Existed++
					continue
				}
			}
			s.logger.Error("event create failed", logging.Err(err), logging.F("event", ev.name))
			rep.Errors++
			continue
		}
		ids[key] = e.ID
		rep.Created++
	}

	return ids, rep.Finish(), nil
}
