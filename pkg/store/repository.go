package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/logging"
)

// pgUniqueViolation is the Postgres error code for a
// unique-constraint violation.
const pgUniqueViolation = "23505"

// Repository provides database operations against the target store.
type Repository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRepository creates a repository over the given pool.
func NewRepository(pool *pgxpool.Pool, logger logging.Logger) *Repository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Repository{
		pool:   pool,
		logger: logger.With(logging.F("component", "repository")),
	}
}

// IsUniqueViolation reports whether err is a unique-constraint
// violation (directly or via ErrConflict wrapping).
func IsUniqueViolation(err error) bool {
	if fperrors.IsConflict(err) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// wrapCreateErr maps a unique violation to ErrConflict so stages can
// run their re-query-and-adopt recovery with errors.Is.
func wrapCreateErr(entity string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("create %s: %w", entity, fperrors.ErrConflict)
	}
	return fmt.Errorf("create %s: %w", entity, err)
}

// --- Events ---

const eventColumns = "id, promotion, name, date, has_started, is_complete, created_at"

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Promotion, &e.Name, &e.Date, &e.HasStarted, &e.IsComplete, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEvents returns all events ordered by creation time.
func (r *Repository) ListEvents(ctx context.Context) ([]Event, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+eventColumns+" FROM events ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// FindEvent looks up an event by its natural key (promotion, name,
// date truncated to day). Returns ErrNotFound when absent.
func (r *Repository) FindEvent(ctx context.Context, promotion, name string, date time.Time) (*Event, error) {
	day := date.Format("2006-01-02")
	e, err := scanEvent(r.pool.QueryRow(ctx,
		"SELECT "+eventColumns+" FROM events WHERE promotion = $1 AND name = $2 AND date::date = $3::date LIMIT 1",
		promotion, name, day))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %q/%q/%s: %w", promotion, name, day, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

// FindEventByNameDate is the fallback uniqueness check used to adopt
// the winner after a create race: (name, date) without promotion.
func (r *Repository) FindEventByNameDate(ctx context.Context, name string, date time.Time) (*Event, error) {
	day := date.Format("2006-01-02")
	e, err := scanEvent(r.pool.QueryRow(ctx,
		"SELECT "+eventColumns+" FROM events WHERE name = $1 AND date::date = $2::date LIMIT 1",
		name, day))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %q/%s: %w", name, day, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find event by name/date: %w", err)
	}
	return e, nil
}

// CreateEvent inserts an event, assigning an id if none is set.
func (r *Repository) CreateEvent(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, promotion, name, date, has_started, is_complete, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`,
		e.ID, e.Promotion, e.Name, e.Date, e.HasStarted, e.IsComplete,
	).Scan(&e.CreatedAt)
	if err != nil {
		return wrapCreateErr("event", err)
	}
	r.logger.Debug("event created", logging.F("id", e.ID), logging.F("name", e.Name))
	return nil
}

// DeleteEvent removes an event by id.
func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// --- Fighters ---

const fighterColumns = "id, first_name, last_name, nickname, gender, created_at"

func scanFighter(row pgx.Row) (*Fighter, error) {
	var f Fighter
	err := row.Scan(&f.ID, &f.FirstName, &f.LastName, &f.Nickname, &f.Gender, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFighters returns all fighters ordered by creation time. The
// ordering matters to the deduplication pass: the earliest-created row
// in a duplicate group becomes canonical.
func (r *Repository) ListFighters(ctx context.Context) ([]Fighter, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+fighterColumns+" FROM fighters ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list fighters: %w", err)
	}
	defer rows.Close()

	var fighters []Fighter
	for rows.Next() {
		f, err := scanFighter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fighter: %w", err)
		}
		fighters = append(fighters, *f)
	}
	return fighters, rows.Err()
}

// FindFighterByName looks up a fighter case-insensitively by name.
// Returns ErrNotFound when absent.
func (r *Repository) FindFighterByName(ctx context.Context, firstName, lastName string) (*Fighter, error) {
	f, err := scanFighter(r.pool.QueryRow(ctx,
		"SELECT "+fighterColumns+" FROM fighters WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2) LIMIT 1",
		firstName, lastName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fighter %q %q: %w", firstName, lastName, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find fighter: %w", err)
	}
	return f, nil
}

// CreateFighter inserts a fighter, assigning an id if none is set.
func (r *Repository) CreateFighter(ctx context.Context, f *Fighter) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fighters (id, first_name, last_name, nickname, gender, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		f.ID, f.FirstName, f.LastName, f.Nickname, f.Gender,
	).Scan(&f.CreatedAt)
	if err != nil {
		return wrapCreateErr("fighter", err)
	}
	r.logger.Debug("fighter created", logging.F("id", f.ID),
		logging.F("name", f.FirstName+" "+f.LastName))
	return nil
}

// DeleteFighter removes a fighter by id.
func (r *Repository) DeleteFighter(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM fighters WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete fighter %s: %w", id, err)
	}
	return nil
}

// --- Fights ---

const fightColumns = "id, event_id, fighter1_id, fighter2_id, weight_class, is_title, card_type, winner, method, round, fight_time, avg_rating, rating_count, created_at"

func scanFight(row pgx.Row) (*Fight, error) {
	var f Fight
	err := row.Scan(&f.ID, &f.EventID, &f.Fighter1ID, &f.Fighter2ID, &f.WeightClass,
		&f.IsTitle, &f.CardType, &f.Winner, &f.Method, &f.Round, &f.Time,
		&f.AvgRating, &f.RatingCount, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFights returns all fights ordered by creation time.
func (r *Repository) ListFights(ctx context.Context) ([]Fight, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+fightColumns+" FROM fights ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list fights: %w", err)
	}
	defer rows.Close()

	var fights []Fight
	for rows.Next() {
		f, err := scanFight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fight: %w", err)
		}
		fights = append(fights, *f)
	}
	return fights, rows.Err()
}

// FindFight looks up a fight by (eventId, fighter pair), trying both
// fighter orderings. Returns ErrNotFound when absent.
func (r *Repository) FindFight(ctx context.Context, eventID, fighter1ID, fighter2ID string) (*Fight, error) {
	f, err := scanFight(r.pool.QueryRow(ctx, `
		SELECT `+fightColumns+` FROM fights
		WHERE event_id = $1
		  AND ((fighter1_id = $2 AND fighter2_id = $3) OR (fighter1_id = $3 AND fighter2_id = $2))
		LIMIT 1`,
		eventID, fighter1ID, fighter2ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fight %s/%s/%s: %w", eventID, fighter1ID, fighter2ID, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find fight: %w", err)
	}
	return f, nil
}

// CreateFight inserts a fight, assigning an id if none is set.
func (r *Repository) CreateFight(ctx context.Context, f *Fight) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fights (id, event_id, fighter1_id, fighter2_id, weight_class, is_title,
			card_type, winner, method, round, fight_time, avg_rating, rating_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at`,
		f.ID, f.EventID, f.Fighter1ID, f.Fighter2ID, f.WeightClass, f.IsTitle,
		f.CardType, f.Winner, f.Method, f.Round, f.Time, f.AvgRating, f.RatingCount,
	).Scan(&f.CreatedAt)
	if err != nil {
		return wrapCreateErr("fight", err)
	}
	r.logger.Debug("fight created", logging.F("id", f.ID), logging.F("event_id", f.EventID))
	return nil
}

// UpdateFightRefs rewrites a fight's foreign keys (event and fighter
// ids). Used by the deduplication pass to repoint fights at canonical
// rows before duplicates are deleted.
func (r *Repository) UpdateFightRefs(ctx context.Context, fightID, eventID, fighter1ID, fighter2ID string) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE fights SET event_id = $2, fighter1_id = $3, fighter2_id = $4 WHERE id = $1",
		fightID, eventID, fighter1ID, fighter2ID)
	if err != nil {
		return fmt.Errorf("update fight refs %s: %w", fightID, err)
	}
	return nil
}

// DeleteFight removes a fight by id.
func (r *Repository) DeleteFight(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM fights WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete fight %s: %w", id, err)
	}
	return nil
}
