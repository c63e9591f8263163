// Package migrate implements the staged reconciliation pipeline that
// moves the legacy FightPulse dataset into the normalized target
// schema: events, fighters, fights, users, ratings, tags, reviews, and
// review upvotes, in strict dependency order, idempotently, with a
// dry-run mode that produces identical match statistics to a real run.
package migrate

import (
	"context"
	"time"

	"github.com/fightpulse/migrate-cli/pkg/store"
)

// The target record store is an external collaborator; each stage
// depends only on the narrow interface below for its entity type, so
// tests inject in-memory fakes. *store.Repository satisfies all of
// them.

// EventStore is the event surface of the record store.
type EventStore interface {
	ListEvents(ctx context.Context) ([]store.Event, error)
	FindEvent(ctx context.Context, promotion, name string, date time.Time) (*store.Event, error)
	FindEventByNameDate(ctx context.Context, name string, date time.Time) (*store.Event, error)
	CreateEvent(ctx context.Context, e *store.Event) error
}

// FighterStore is the fighter surface of the record store.
type FighterStore interface {
	ListFighters(ctx context.Context) ([]store.Fighter, error)
	FindFighterByName(ctx context.Context, firstName, lastName string) (*store.Fighter, error)
	CreateFighter(ctx context.Context, f *store.Fighter) error
}

// FightStore is the fight surface of the record store.
type FightStore interface {
	ListFights(ctx context.Context) ([]store.Fight, error)
	FindFight(ctx context.Context, eventID, fighter1ID, fighter2ID string) (*store.Fight, error)
	CreateFight(ctx context.Context, f *store.Fight) error
}

// UserStore is the user surface of the record store.
type UserStore interface {
	ListUsers(ctx context.Context) ([]store.User, error)
	FindUserByEmail(ctx context.Context, email string) (*store.User, error)
	CreateUser(ctx context.Context, u *store.User) error
}

// TagStore is the canonical-tag surface of the record store.
type TagStore interface {
	ListTags(ctx context.Context) ([]store.Tag, error)
	FindTagByName(ctx context.Context, name string) (*store.Tag, error)
	CreateTag(ctx context.Context, t *store.Tag) error
}

// FightTagStore is the join-row surface of the record store.
type FightTagStore interface {
	ListFightTags(ctx context.Context) ([]store.FightTag, error)
	BulkInsertFightTags(ctx context.Context, batch []store.FightTag) (int, error)
}

// RatingStore is the rating surface of the record store.
type RatingStore interface {
	FindRating(ctx context.Context, userID, fightID string) (*store.Rating, error)
	CreateRating(ctx context.Context, rt *store.Rating) error
}

// ReviewStore is the review surface of the record store.
type ReviewStore interface {
	FindReview(ctx context.Context, userID, fightID string) (*store.Review, error)
	CreateReview(ctx context.Context, rv *store.Review) error
}

// ReviewUpvoteStore is the upvote surface of the record store.
type ReviewUpvoteStore interface {
	FindReviewUpvote(ctx context.Context, reviewID, userID string) (*store.ReviewUpvote, error)
	CreateReviewUpvote(ctx context.Context, uv *store.ReviewUpvote) error
}

// Stores aggregates every store surface the orchestrator needs.
type Stores interface {
	EventStore
	FighterStore
	FightStore
	UserStore
	TagStore
	FightTagStore
	RatingStore
	ReviewStore
	ReviewUpvoteStore
}
