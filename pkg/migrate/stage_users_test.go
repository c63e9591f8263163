package migrate

import (
	"context"
	"testing"

	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

func TestUserMapsResolve(t *testing.T) {
	m := NewUserMaps()
	m.Put("user@example.com", "u-1")

	// Derived hash.
	if id, ok := m.Resolve("USER@example.com", ""); !ok || id != "u-1" {
		t.Errorf("Resolve by email = (%q, %v), want (u-1, true)", id, ok)
	}
	// Stored hash fallback.
	hash := legacy.UserShardKey("user@example.com")
	if id, ok := m.Resolve("", hash); !ok || id != "u-1" {
		t.Errorf("Resolve by hash = (%q, %v), want (u-1, true)", id, ok)
	}
	if _, ok := m.Resolve("other@example.com", ""); ok {
		t.Error("unknown user should not resolve")
	}
	if _, ok := m.Resolve("", ""); ok {
		t.Error("empty identifiers should not resolve")
	}
}

func TestUserMapsDerivedHashWinsOverStored(t *testing.T) {
	m := NewUserMaps()
	m.Put("a@example.com", "u-a")
	m.Put("b@example.com", "u-b")

	// A record carrying a@'s email but b@'s stored hash: the derived
	// hash from the email wins.
	id, ok := m.Resolve("a@example.com", legacy.UserShardKey("b@example.com"))
	if !ok || id != "u-a" {
		t.Errorf("Resolve = (%q, %v), want (u-a, true)", id, ok)
	}
}

func TestUserStageMigratesUsers(t *testing.T) {
	fs := newFakeStore()
	users := []legacy.User{
		legacyUser(1, "a@example.com", "Alice"),
		legacyUser(2, "B@Example.com ", "Bob"),
	}

	res, err := NewUserStage(fs, nil, false).Run(context.Background(), users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Created != 2 {
		t.Errorf("Created = %d, want 2", res.Report.Created)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(res.Entries))
	}
	// Emails are stored normalized.
	if res.Entries[1].LegacyEmail != "b@example.com" {
		t.Errorf("LegacyEmail = %q, want normalized", res.Entries[1].LegacyEmail)
	}
	if _, ok := res.Maps.Resolve("a@example.com", ""); !ok {
		t.Error("migrated user should resolve")
	}
}

func TestUserStageSkipsInvalidAndDuplicateEmails(t *testing.T) {
	fs := newFakeStore()
	users := []legacy.User{
		legacyUser(1, "", "No Email"),
		legacyUser(2, "not-an-email", "Bad"),
		legacyUser(3, "a@example.com", "Alice"),
		legacyUser(4, "A@EXAMPLE.COM", "Alice Again"),
	}

	res, err := NewUserStage(fs, nil, false).Run(context.Background(), users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Report.Skipped[SkipInvalidEmail] != 2 {
		t.Errorf("Skipped[invalidEmail] = %d, want 2", res.Report.Skipped[SkipInvalidEmail])
	}
	if res.Report.Skipped[SkipDuplicate] != 1 {
		t.Errorf("Skipped[duplicate] = %d, want 1", res.Report.Skipped[SkipDuplicate])
	}
	if res.Report.Created != 1 {
		t.Errorf("Created = %d, want 1", res.Report.Created)
	}
}

func TestUserStageIdempotent(t *testing.T) {
	fs := newFakeStore()
	users := []legacy.User{legacyUser(1, "a@example.com", "Alice")}

	if _, err := NewUserStage(fs, nil, false).Run(context.Background(), users); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := NewUserStage(fs, nil, false).Run(context.Background(), users)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Report.Created != 0 || res.Report.Existed != 1 {
		t.Errorf("Created/Existed = %d/%d, want 0/1", res.Report.Created, res.Report.Existed)
	}
	if len(fs.users) != 1 {
		t.Errorf("store has %d users, want 1", len(fs.users))
	}
}

func TestUserStageDryRun(t *testing.T) {
	fs := newFakeStore()
	fs.users = append(fs.users, store.User{ID: fs.id("u"), Email: "a@example.com"})

	users := []legacy.User{
		legacyUser(1, "a@example.com", "Alice"),
		legacyUser(2, "b@example.com", "Bob"),
	}
	res, err := NewUserStage(fs, nil, true).Run(context.Background(), users)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Reads still run: the seeded user is matched, the other is a
	// synthetic create.
	if res.Report.Existed != 1 || res.Report.Created != 1 {
		t.Errorf("Created/Existed = %d/%d, want 1/1", res.Report.Created, res.Report.Existed)
	}
	if len(fs.users) != 1 {
		t.Errorf("dry run wrote users: %d rows", len(fs.users))
	}
}

func TestRebuildUserMaps(t *testing.T) {
	entries := []mapping.UserEntry{
		{LegacyID: 1, LegacyEmail: "a@example.com", LegacyEmailHash: "deadbeef", NewID: "u-1"},
		{LegacyID: 2, LegacyEmail: "b@example.com", NewID: "u-2"},
	}

	m := RebuildUserMaps(entries)
	if id, ok := m.Resolve("a@example.com", ""); !ok || id != "u-1" {
		t.Errorf("Resolve(a@) = (%q, %v)", id, ok)
	}
	// The stored legacy hash works as a fallback identifier.
	if id, ok := m.Resolve("", "deadbeef"); !ok || id != "u-1" {
		t.Errorf("Resolve by stored hash = (%q, %v)", id, ok)
	}
	// A stored hash must not displace a derived one.
	clash := []mapping.UserEntry{
		{LegacyID: 1, LegacyEmail: "a@example.com", NewID: "u-1"},
		{LegacyID: 2, LegacyEmail: "c@example.com", LegacyEmailHash: legacy.UserShardKey("a@example.com"), NewID: "u-2"},
	}
	m = RebuildUserMaps(clash)
	if id, _ := m.Resolve("a@example.com", ""); id != "u-1" {
		t.Errorf("derived hash displaced: got %q, want u-1", id)
	}
}
