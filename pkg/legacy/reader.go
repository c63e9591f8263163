package legacy

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
)

// Artifact file names produced by the SQL-dump extraction.
const (
	FightsFile        = "fights.json"
	UsersFile         = "users.json"
	RatingsFile       = "ratings.json"
	ReviewsFile       = "reviews.json"
	ReviewUpvotesFile = "review-upvotes.json"
	TagVotesFile      = "tag-votes.json"

	// shardDir holds the per-user collections keyed by UserShardKey.
	shardDir = "usertables"
)

// UserShardKey derives the key under which a user's legacy collection
// is stored: the MD5 hex digest of the lowercased, trimmed email. The
// legacy schema named one table per user this way; the reconciliation
// logic only ever sees it as a key-derivation function.
func UserShardKey(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// Reader loads legacy export artifacts from a data directory.
type Reader struct {
	dir string
}

// NewReader creates a Reader rooted at dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Dir returns the data directory the reader is rooted at.
func (r *Reader) Dir() string {
	return r.dir
}

func readArray[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, fperrors.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return out, nil
}

// Fights loads the legacy fight records in export order.
func (r *Reader) Fights() ([]Fight, error) {
	return readArray[Fight](filepath.Join(r.dir, FightsFile))
}

// Users loads the legacy user records.
func (r *Reader) Users() ([]User, error) {
	return readArray[User](filepath.Join(r.dir, UsersFile))
}

// Ratings loads the legacy rating records.
func (r *Reader) Ratings() ([]Rating, error) {
	return readArray[Rating](filepath.Join(r.dir, RatingsFile))
}

// Reviews loads the legacy review records.
func (r *Reader) Reviews() ([]Review, error) {
	return readArray[Review](filepath.Join(r.dir, ReviewsFile))
}

// ReviewUpvotes loads the legacy review upvote records.
func (r *Reader) ReviewUpvotes() ([]ReviewUpvote, error) {
	return readArray[ReviewUpvote](filepath.Join(r.dir, ReviewUpvotesFile))
}

// TagVotes loads the legacy tag vote records.
func (r *Reader) TagVotes() ([]TagVote, error) {
	return readArray[TagVote](filepath.Join(r.dir, TagVotesFile))
}

// CollectionByKey loads a per-user collection stored under a derived
// shard key (see UserShardKey). Returns ErrNotFound when no collection
// exists for the key; an absent shard is a per-user condition, not a
// missing prerequisite.
func (r *Reader) CollectionByKey(key string) ([]json.RawMessage, error) {
	path := filepath.Join(r.dir, shardDir, key+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("shard %s: %w", key, fperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("reading shard %s: %w", key, err)
	}
	var out []json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding shard %s: %w", key, err)
	}
	return out, nil
}

// UserCollection loads the per-user collection for an email address.
func (r *Reader) UserCollection(email string) ([]json.RawMessage, error) {
	return r.CollectionByKey(UserShardKey(email))
}
