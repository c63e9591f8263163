package migrate

import (
	"context"
	"strings"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/legacy"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// UserMaps indexes migrated users by the two identifiers legacy
// engagement records carry: the derived email hash and the email
// itself. The hash is always derived from the email with
// legacy.UserShardKey; the hash column stored on legacy rows is not
// trusted as a primary key, only as a fallback lookup.
type UserMaps struct {
	ByHash  map[string]string // UserShardKey(email) -> target user id
	ByEmail map[string]string // lowercased trimmed email -> target user id
}

// NewUserMaps creates empty maps.
func NewUserMaps() *UserMaps {
	return &UserMaps{
		ByHash:  make(map[string]string),
		ByEmail: make(map[string]string),
	}
}

// Put registers a migrated user under both identifiers.
func (m *UserMaps) Put(email, targetID string) {
	norm := strings.ToLower(strings.TrimSpace(email))
	if norm == "" {
		return
	}
	m.ByEmail[norm] = targetID
	m.ByHash[legacy.UserShardKey(email)] = targetID
}

// Resolve finds the target user for a legacy engagement record, trying
// the derived hash first and the raw stored hash and email as
// fallbacks.
func (m *UserMaps) Resolve(email, storedHash string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(email))
	if norm != "" {
		if id, ok := m.ByHash[legacy.UserShardKey(email)]; ok {
			return id, true
		}
		if id, ok := m.ByEmail[norm]; ok {
			return id, true
		}
	}
	if h := strings.ToLower(strings.TrimSpace(storedHash)); h != "" {
		if id, ok := m.ByHash[h]; ok {
			return id, true
		}
	}
	return "", false
}

// UserStage migrates legacy user accounts.
type UserStage struct {
	users  UserStore
	logger logging.Logger
	dryRun bool
}

// NewUserStage creates the user stage.
func NewUserStage(users UserStore, logger logging.Logger, dryRun bool) *UserStage {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &UserStage{
		users:  users,
		logger: logger.With(logging.F("stage", StageUsers)),
		dryRun: dryRun,
	}
}

// UserStageResult is the stage output: the identifier maps consumed by
// every engagement stage plus the user-mapping artifact entries.
type UserStageResult struct {
	Maps    *UserMaps
	Entries []mapping.UserEntry
	Report  *StageReport
}

// Run migrates the legacy users keyed by email address. Users with an
// empty email cannot be migrated: nothing downstream could ever
// reference them.
func (s *UserStage) Run(ctx context.Context, users []legacy.User) (*UserStageResult, error) {
	rep := NewStageReport(StageUsers)
	res := &UserStageResult{
		Maps:    NewUserMaps(),
		Entries: []mapping.UserEntry{},
		Report:  rep,
	}

	rep.Total = len(users)
	seen := make(map[string]struct{}, len(users))
	for i := range users {
		lu := &users[i]
		email := strings.ToLower(strings.TrimSpace(lu.Email.String()))
		if email == "" || !strings.Contains(email, "@") {
			rep.Skip(SkipInvalidEmail)
			continue
		}
		if _, dup := seen[email]; dup {
			rep.Skip(SkipDuplicate)
			continue
		}
		seen[email] = struct{}{}

		record := func(targetID string) {
			res.Maps.Put(email, targetID)
			res.Entries = append(res.Entries, mapping.UserEntry{
				LegacyID:        lu.ID,
				LegacyEmail:     email,
				LegacyEmailHash: strings.TrimSpace(lu.EmailHash.String()),
				NewID:           targetID,
			})
		}

		existing, err := s.users.FindUserByEmail(ctx, email)
		switch {
		case err == nil:
			record(existing.ID)
			rep.Existed++
			continue
		case !fperrors.IsNotFound(err):
			s.logger.Error("user lookup failed", logging.Err(err), logging.F("legacy_id", lu.ID))
			rep.Errors++
			continue
		}

		if s.dryRun {
			record(SyntheticID())
			rep.Created++
			continue
		}

		tu := &store.User{
			Email:       email,
			DisplayName: strings.TrimSpace(lu.Name.String()),
			IsMedia:     lu.IsMedia.Bool(),
		}
		if err := s.users.CreateUser(ctx, tu); err != nil {
			if fperrors.IsConflict(err) {
				if winner, ferr := s.users.FindUserByEmail(ctx, email); ferr == nil {
					record(winner.ID)
					rep.Existed++
					continue
				}
			}
			s.logger.Error("user create failed", logging.Err(err), logging.F("legacy_id", lu.ID))
			rep.Errors++
			continue
		}
		record(tu.ID)
		rep.Created++
	}

	rep.Finish()
	return res, nil
}

// RebuildUserMaps reconstructs the identifier maps from the persisted
// user-mapping artifact, used when the user stage did not run in this
// process.
func RebuildUserMaps(entries []mapping.UserEntry) *UserMaps {
	m := NewUserMaps()
	for _, e := range entries {
		m.Put(e.LegacyEmail, e.NewID)
		if h := strings.ToLower(strings.TrimSpace(e.LegacyEmailHash)); h != "" {
			if _, taken := m.ByHash[h]; !taken {
				m.ByHash[h] = e.NewID
			}
		}
	}
	return m
}
