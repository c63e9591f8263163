package migrate

import (
	"context"
	"testing"

	"github.com/fightpulse/migrate-cli/pkg/legacy"
)

func upvoteFixtures() (map[int64]string, *UserMaps) {
	reviewIDs := map[int64]string{500: "rv-1", 501: "rv-2"}
	users := NewUserMaps()
	users.Put("a@example.com", "u-1")
	users.Put("b@example.com", "u-2")
	return reviewIDs, users
}

func TestUpvoteStageMigratesUpvotes(t *testing.T) {
	fs := newFakeStore()
	reviewIDs, users := upvoteFixtures()

	upvotes := []legacy.ReviewUpvote{
		legacyUpvote(1, 500, "a@example.com"),
		legacyUpvote(2, 500, "b@example.com"),
		legacyUpvote(3, 501, "a@example.com"),
	}
	rep, err := NewUpvoteStage(fs, nil, false).Run(context.Background(), upvotes, reviewIDs, users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Created != 3 {
		t.Errorf("Created = %d, want 3", rep.Created)
	}
	if len(fs.upvotes) != 3 {
		t.Errorf("store has %d upvotes, want 3", len(fs.upvotes))
	}
}

func TestUpvoteStageSkips(t *testing.T) {
	fs := newFakeStore()
	reviewIDs, users := upvoteFixtures()

	upvotes := []legacy.ReviewUpvote{
		legacyUpvote(1, 999, "a@example.com"),      // unmapped review
		legacyUpvote(2, 500, "nobody@example.com"), // unknown user
		legacyUpvote(3, 500, "a@example.com"),      // ok
		legacyUpvote(4, 500, "a@example.com"),      // same pair again
	}
	rep, err := NewUpvoteStage(fs, nil, false).Run(context.Background(), upvotes, reviewIDs, users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Skipped[SkipNoReview] != 1 || rep.Skipped[SkipNoUser] != 1 || rep.Skipped[SkipDuplicate] != 1 {
		t.Errorf("Skipped = %v", rep.Skipped)
	}
	if rep.Created != 1 {
		t.Errorf("Created = %d, want 1", rep.Created)
	}
}

func TestUpvoteStageIdempotent(t *testing.T) {
	fs := newFakeStore()
	reviewIDs, users := upvoteFixtures()
	upvotes := []legacy.ReviewUpvote{legacyUpvote(1, 500, "a@example.com")}

	if _, err := NewUpvoteStage(fs, nil, false).Run(context.Background(), upvotes, reviewIDs, users); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	rep, err := NewUpvoteStage(fs, nil, false).Run(context.Background(), upvotes, reviewIDs, users)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rep.Created != 0 || rep.Existed != 1 {
		t.Errorf("Created/Existed = %d/%d, want 0/1", rep.Created, rep.Existed)
	}
}

func TestUpvoteStageDryRunSyntheticReview(t *testing.T) {
	fs := newFakeStore()
	_, users := upvoteFixtures()
	reviewIDs := map[int64]string{500: SyntheticID()}

	upvotes := []legacy.ReviewUpvote{legacyUpvote(1, 500, "a@example.com")}
	rep, err := NewUpvoteStage(fs, nil, true).Run(context.Background(), upvotes, reviewIDs, users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Created != 1 {
		t.Errorf("Created = %d, want 1", rep.Created)
	}
	if fs.calls["FindReviewUpvote"] != 0 {
		t.Errorf("lookup ran against a synthetic review id")
	}
	if len(fs.upvotes) != 0 {
		t.Errorf("dry run wrote upvotes")
	}
}

func TestUpvoteStageConflictCountsExisted(t *testing.T) {
	fs := newFakeStore()
	fs.conflictNextCreate = true
	reviewIDs, users := upvoteFixtures()

	upvotes := []legacy.ReviewUpvote{legacyUpvote(1, 500, "a@example.com")}
	rep, err := NewUpvoteStage(fs, nil, false).Run(context.Background(), upvotes, reviewIDs, users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Existed != 1 || rep.Errors != 0 {
		t.Errorf("Existed/Errors = %d/%d, want 1/0", rep.Existed, rep.Errors)
	}
}
