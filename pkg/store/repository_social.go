package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
)

// --- Users ---

const userColumns = "id, email, display_name, is_media, created_at"

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.IsMedia, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// FindUserByEmail looks up a user case-insensitively by email.
// Returns ErrNotFound when absent.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1", email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", email, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user, assigning an id if none is set.
func (r *Repository) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, display_name, is_media, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		u.ID, u.Email, u.DisplayName, u.IsMedia,
	).Scan(&u.CreatedAt)
	if err != nil {
		return wrapCreateErr("user", err)
	}
	return nil
}

// --- Tags ---

const tagColumns = "id, name, category, allows_low_rated, allows_high_rated"

func scanTag(row pgx.Row) (*Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.AllowsLowRated, &t.AllowsHighRated)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns all canonical tags.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+tagColumns+" FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, *t)
	}
	return tags, rows.Err()
}

// FindTagByName looks up a canonical tag by name. Returns ErrNotFound
// when absent.
func (r *Repository) FindTagByName(ctx context.Context, name string) (*Tag, error) {
	t, err := scanTag(r.pool.QueryRow(ctx,
		"SELECT "+tagColumns+" FROM tags WHERE name = $1 LIMIT 1", name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tag %q: %w", name, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find tag: %w", err)
	}
	return t, nil
}

// CreateTag inserts a canonical tag, assigning an id if none is set.
func (r *Repository) CreateTag(ctx context.Context, t *Tag) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tags (id, name, category, allows_low_rated, allows_high_rated)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Category, t.AllowsLowRated, t.AllowsHighRated)
	if err != nil {
		return wrapCreateErr("tag", err)
	}
	return nil
}

// --- Fight tags ---

// ListFightTags returns all persisted (userId, fightId, tagId) join
// rows, used to seed the duplicate check before a bulk insert.
func (r *Repository) ListFightTags(ctx context.Context) ([]FightTag, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, user_id, fight_id, tag_id FROM fight_tags")
	if err != nil {
		return nil, fmt.Errorf("list fight tags: %w", err)
	}
	defer rows.Close()

	var fts []FightTag
	for rows.Next() {
		var ft FightTag
		if err := rows.Scan(&ft.ID, &ft.UserID, &ft.FightID, &ft.TagID); err != nil {
			return nil, fmt.Errorf("scan fight tag: %w", err)
		}
		fts = append(fts, ft)
	}
	return fts, rows.Err()
}

// BulkInsertFightTags inserts a batch of join rows in a single round
// trip. Duplicate-key conflicts within the batch are skipped row by
// row (ON CONFLICT DO NOTHING), not failed as a whole. Returns the
// number of rows actually inserted.
func (r *Repository) BulkInsertFightTags(ctx context.Context, batch []FightTag) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
		b.Queue(`
			INSERT INTO fight_tags (id, user_id, fight_id, tag_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, fight_id, tag_id) DO NOTHING`,
			batch[i].ID, batch[i].UserID, batch[i].FightID, batch[i].TagID)
	}

	results := r.pool.SendBatch(ctx, b)
	defer results.Close()

	inserted := 0
	for range batch {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("bulk insert fight tags: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// --- Ratings ---

// FindRating looks up a user's rating for a fight. Returns ErrNotFound
// when absent.
func (r *Repository) FindRating(ctx context.Context, userID, fightID string) (*Rating, error) {
	var rt Rating
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, fight_id, score, created_at FROM ratings WHERE user_id = $1 AND fight_id = $2 LIMIT 1",
		userID, fightID,
	).Scan(&rt.ID, &rt.UserID, &rt.FightID, &rt.Score, &rt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rating %s/%s: %w", userID, fightID, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find rating: %w", err)
	}
	return &rt, nil
}

// CreateRating inserts a rating, assigning an id if none is set.
func (r *Repository) CreateRating(ctx context.Context, rt *Rating) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ratings (id, user_id, fight_id, score, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		rt.ID, rt.UserID, rt.FightID, rt.Score,
	).Scan(&rt.CreatedAt)
	if err != nil {
		return wrapCreateErr("rating", err)
	}
	return nil
}

// --- Reviews ---

// FindReview looks up a user's review of a fight. Returns ErrNotFound
// when absent.
func (r *Repository) FindReview(ctx context.Context, userID, fightID string) (*Review, error) {
	var rv Review
	err := r.pool.QueryRow(ctx,
		"SELECT id, user_id, fight_id, title, body, created_at FROM reviews WHERE user_id = $1 AND fight_id = $2 LIMIT 1",
		userID, fightID,
	).Scan(&rv.ID, &rv.UserID, &rv.FightID, &rv.Title, &rv.Body, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("review %s/%s: %w", userID, fightID, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &rv, nil
}

// CreateReview inserts a review, assigning an id if none is set.
func (r *Repository) CreateReview(ctx context.Context, rv *Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (id, user_id, fight_id, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`,
		rv.ID, rv.UserID, rv.FightID, rv.Title, rv.Body,
	).Scan(&rv.CreatedAt)
	if err != nil {
		return wrapCreateErr("review", err)
	}
	return nil
}

// --- Review upvotes ---

// FindReviewUpvote looks up an upvote by (reviewId, userId). Returns
// ErrNotFound when absent.
func (r *Repository) FindReviewUpvote(ctx context.Context, reviewID, userID string) (*ReviewUpvote, error) {
	var uv ReviewUpvote
	err := r.pool.QueryRow(ctx,
		"SELECT id, review_id, user_id FROM review_upvotes WHERE review_id = $1 AND user_id = $2 LIMIT 1",
		reviewID, userID,
	).Scan(&uv.ID, &uv.ReviewID, &uv.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upvote %s/%s: %w", reviewID, userID, fperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find review upvote: %w", err)
	}
	return &uv, nil
}

// CreateReviewUpvote inserts an upvote, assigning an id if none is set.
func (r *Repository) CreateReviewUpvote(ctx context.Context, uv *ReviewUpvote) error {
	if uv.ID == "" {
		uv.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx,
		"INSERT INTO review_upvotes (id, review_id, user_id) VALUES ($1, $2, $3)",
		uv.ID, uv.ReviewID, uv.UserID)
	if err != nil {
		return wrapCreateErr("review upvote", err)
	}
	return nil
}
