package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// fakeStore is an in-memory Stores implementation with the same
// uniqueness semantics as the real repository: duplicate natural keys
// fail creates with ErrConflict, misses return ErrNotFound.
type fakeStore struct {
	nextID int

	events   []store.Event
	fighters []store.Fighter
	fights   []store.Fight
	users    []store.User
	tags     []store.Tag
	fightTag []store.FightTag
	ratings  []store.Rating
	reviews  []store.Review
	upvotes  []store.ReviewUpvote

	// conflictNextCreate forces the next create to fail with
	// ErrConflict without inserting, simulating a lost create race.
	conflictNextCreate bool

	// raceNextCreate inserts the row but still reports ErrConflict,
	// simulating another writer committing the same natural key first.
	raceNextCreate bool

	// failBulkInsert fails every BulkInsertFightTags call.
	failBulkInsert bool

	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(map[string]int)}
}

func (f *fakeStore) call(name string) {
	f.calls[name]++
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) takeConflict() bool {
	if f.conflictNextCreate {
		f.conflictNextCreate = false
		return true
	}
	return false
}

func (f *fakeStore) takeRace() bool {
	if f.raceNextCreate {
		f.raceNextCreate = false
		return true
	}
	return false
}

// --- events ---

func (f *fakeStore) ListEvents(ctx context.Context) ([]store.Event, error) {
	f.call("ListEvents")
	return append([]store.Event(nil), f.events...), nil
}

func (f *fakeStore) FindEvent(ctx context.Context, promotion, name string, date time.Time) (*store.Event, error) {
	f.call("FindEvent")
	for i := range f.events {
		e := &f.events[i]
		if strings.EqualFold(e.Promotion, promotion) && strings.EqualFold(e.Name, name) && e.Date.Equal(date) {
			return e, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) FindEventByNameDate(ctx context.Context, name string, date time.Time) (*store.Event, error) {
	f.call("FindEventByNameDate")
	for i := range f.events {
		e := &f.events[i]
		if strings.EqualFold(e.Name, name) && e.Date.Equal(date) {
			return e, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateEvent(ctx context.Context, e *store.Event) error {
	f.call("CreateEvent")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindEventByNameDate(ctx, e.Name, e.Date); err == nil {
		return fperrors.ErrConflict
	}
	e.ID = f.id("ev")
	e.CreatedAt = time.Now().UTC()
	f.events = append(f.events, *e)
	return nil
}

// --- fighters ---

func (f *fakeStore) ListFighters(ctx context.Context) ([]store.Fighter, error) {
	f.call("ListFighters")
	return append([]store.Fighter(nil), f.fighters...), nil
}

func (f *fakeStore) FindFighterByName(ctx context.Context, firstName, lastName string) (*store.Fighter, error) {
	f.call("FindFighterByName")
	for i := range f.fighters {
		fr := &f.fighters[i]
		if strings.EqualFold(fr.FirstName, firstName) && strings.EqualFold(fr.LastName, lastName) {
			return fr, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateFighter(ctx context.Context, fr *store.Fighter) error {
	f.call("CreateFighter")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindFighterByName(ctx, fr.FirstName, fr.LastName); err == nil {
		return fperrors.ErrConflict
	}
	fr.ID = f.id("fr")
	fr.CreatedAt = time.Now().UTC()
	f.fighters = append(f.fighters, *fr)
	if f.takeRace() {
		return fperrors.ErrConflict
	}
	return nil
}

// --- fights ---

func (f *fakeStore) ListFights(ctx context.Context) ([]store.Fight, error) {
	f.call("ListFights")
	return append([]store.Fight(nil), f.fights...), nil
}

func (f *fakeStore) FindFight(ctx context.Context, eventID, fighter1ID, fighter2ID string) (*store.Fight, error) {
	f.call("FindFight")
	for i := range f.fights {
		ft := &f.fights[i]
		if ft.EventID != eventID {
			continue
		}
		if (ft.Fighter1ID == fighter1ID && ft.Fighter2ID == fighter2ID) ||
			(ft.Fighter1ID == fighter2ID && ft.Fighter2ID == fighter1ID) {
			return ft, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateFight(ctx context.Context, ft *store.Fight) error {
	f.call("CreateFight")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindFight(ctx, ft.EventID, ft.Fighter1ID, ft.Fighter2ID); err == nil {
		return fperrors.ErrConflict
	}
	ft.ID = f.id("ft")
	ft.CreatedAt = time.Now().UTC()
	f.fights = append(f.fights, *ft)
	if f.takeRace() {
		return fperrors.ErrConflict
	}
	return nil
}

// --- users ---

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	f.call("ListUsers")
	return append([]store.User(nil), f.users...), nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	f.call("FindUserByEmail")
	for i := range f.users {
		u := &f.users[i]
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, u *store.User) error {
	f.call("CreateUser")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindUserByEmail(ctx, u.Email); err == nil {
		return fperrors.ErrConflict
	}
	u.ID = f.id("u")
	u.CreatedAt = time.Now().UTC()
	f.users = append(f.users, *u)
	if f.takeRace() {
		return fperrors.ErrConflict
	}
	return nil
}

// --- tags ---

func (f *fakeStore) ListTags(ctx context.Context) ([]store.Tag, error) {
	f.call("ListTags")
	return append([]store.Tag(nil), f.tags...), nil
}

func (f *fakeStore) FindTagByName(ctx context.Context, name string) (*store.Tag, error) {
	f.call("FindTagByName")
	for i := range f.tags {
		t := &f.tags[i]
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateTag(ctx context.Context, t *store.Tag) error {
	f.call("CreateTag")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindTagByName(ctx, t.Name); err == nil {
		return fperrors.ErrConflict
	}
	t.ID = f.id("tag")
	f.tags = append(f.tags, *t)
	if f.takeRace() {
		return fperrors.ErrConflict
	}
	return nil
}

// --- fight tags ---

func (f *fakeStore) ListFightTags(ctx context.Context) ([]store.FightTag, error) {
	f.call("ListFightTags")
	return append([]store.FightTag(nil), f.fightTag...), nil
}

func (f *fakeStore) BulkInsertFightTags(ctx context.Context, batch []store.FightTag) (int, error) {
	f.call("BulkInsertFightTags")
	if f.failBulkInsert {
		return 0, fmt.Errorf("bulk insert refused")
	}
	inserted := 0
	for _, row := range batch {
		dup := false
		for _, existing := range f.fightTag {
			if existing.UserID == row.UserID && existing.FightID == row.FightID && existing.TagID == row.TagID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		row.ID = f.id("ftag")
		f.fightTag = append(f.fightTag, row)
		inserted++
	}
	return inserted, nil
}

// --- ratings ---

func (f *fakeStore) FindRating(ctx context.Context, userID, fightID string) (*store.Rating, error) {
	f.call("FindRating")
	for i := range f.ratings {
		r := &f.ratings[i]
		if r.UserID == userID && r.FightID == fightID {
			return r, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateRating(ctx context.Context, rt *store.Rating) error {
	f.call("CreateRating")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindRating(ctx, rt.UserID, rt.FightID); err == nil {
		return fperrors.ErrConflict
	}
	rt.ID = f.id("rt")
	rt.CreatedAt = time.Now().UTC()
	f.ratings = append(f.ratings, *rt)
	return nil
}

// --- reviews ---

func (f *fakeStore) FindReview(ctx context.Context, userID, fightID string) (*store.Review, error) {
	f.call("FindReview")
	for i := range f.reviews {
		r := &f.reviews[i]
		if r.UserID == userID && r.FightID == fightID {
			return r, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateReview(ctx context.Context, rv *store.Review) error {
	f.call("CreateReview")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindReview(ctx, rv.UserID, rv.FightID); err == nil {
		return fperrors.ErrConflict
	}
	rv.ID = f.id("rv")
	rv.CreatedAt = time.Now().UTC()
	f.reviews = append(f.reviews, *rv)
	if f.takeRace() {
		return fperrors.ErrConflict
	}
	return nil
}

// --- upvotes ---

func (f *fakeStore) FindReviewUpvote(ctx context.Context, reviewID, userID string) (*store.ReviewUpvote, error) {
	f.call("FindReviewUpvote")
	for i := range f.upvotes {
		uv := &f.upvotes[i]
		if uv.ReviewID == reviewID && uv.UserID == userID {
			return uv, nil
		}
	}
	return nil, fperrors.ErrNotFound
}

func (f *fakeStore) CreateReviewUpvote(ctx context.Context, uv *store.ReviewUpvote) error {
	f.call("CreateReviewUpvote")
	if f.takeConflict() {
		return fperrors.ErrConflict
	}
	if _, err := f.FindReviewUpvote(ctx, uv.ReviewID, uv.UserID); err == nil {
		return fperrors.ErrConflict
	}
	uv.ID = f.id("uv")
	f.upvotes = append(f.upvotes, *uv)
	return nil
}

var _ Stores = (*fakeStore)(nil)
