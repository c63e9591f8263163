// Package store provides database operations against the normalized
// target schema. Migration stages never depend on this package
// directly; they consume the narrow per-entity interfaces declared in
// pkg/migrate and pkg/dedupe, which *Repository satisfies.
package store

import "time"

// Event is a target event row: (promotion, name, date) should resolve
// to one row; (name, date) is the fallback uniqueness check.
type Event struct {
	ID         string
	Promotion  string
	Name       string
	Date       time.Time
	HasStarted bool
	IsComplete bool
	CreatedAt  time.Time
}

// Fighter is a target fighter row. (firstName, lastName) is unique
// case-insensitively; violations produce duplicate fighters that
// corrupt fight matching.
type Fighter struct {
	ID        string
	FirstName string
	LastName  string
	Nickname  string
	Gender    string
	CreatedAt time.Time
}

// Fight is a target fight row. The fighter pair is semantically
// unordered: (eventId, {fighter1Id, fighter2Id}) is unique.
type Fight struct {
	ID         string
	EventID    string
	Fighter1ID string
	Fighter2ID string

	WeightClass string
	IsTitle     bool
	CardType    string

	Winner string
	Method string
	Round  int
	Time   string

	AvgRating   float64
	RatingCount int

	CreatedAt time.Time
}

// User is a target user row.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsMedia     bool
	CreatedAt   time.Time
}

// Tag is a canonical tag row, keyed by name.
type Tag struct {
	ID       string
	Name     string
	Category string
	// Rating-band eligibility: whether the tag may be offered on
	// low-rated and high-rated fights respectively.
	AllowsLowRated  bool
	AllowsHighRated bool
}

// FightTag is the (userId, fightId, tagId) join row; the triple is
// unique.
type FightTag struct {
	ID      string
	UserID  string
	FightID string
	TagID   string
}

// Rating is a user's score for a fight; (userId, fightId) is unique.
type Rating struct {
	ID        string
	UserID    string
	FightID   string
	Score     int
	CreatedAt time.Time
}

// Review is a user's written review of a fight; (userId, fightId) is
// unique.
type Review struct {
	ID        string
	UserID    string
	FightID   string
	Title     string
	Body      string
	CreatedAt time.Time
}

// ReviewUpvote is an upvote on a review; (reviewId, userId) is unique.
type ReviewUpvote struct {
	ID       string
	ReviewID string
	UserID   string
}

// CardType values.
const (
	CardTypeMain   = "main"
	CardTypePrelim = "prelim"
	CardTypeEarly  = "early_prelim"
)
