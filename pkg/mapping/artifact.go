package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
)

// Artifact file names exchanged between stages.
const (
	FightMappingFile    = "fight-mapping.json"
	UserMappingFile     = "user-mapping.json"
	TagMappingFile      = "tag-mapping.json"
	ReviewMappingFile   = "review-mapping.json"
	UnmatchedFightsFile = "unmatched-fights.json"
)

// FightEntry maps a legacy fight id to its target fight, with enough
// denormalized context for a human to review the output.
type FightEntry struct {
	LegacyID     int64  `json:"legacyId"`
	NewID        string `json:"newId"`
	Fighter1Name string `json:"fighter1Name"`
	Fighter2Name string `json:"fighter2Name"`
	Date         string `json:"date"`
	EventName    string `json:"eventName"`
	// MatchKind records the confidence the match was made with
	// ("exact", "fuzzy", or "created").
	MatchKind string `json:"matchKind"`
}

// UserEntry maps a legacy user id to its target user.
type UserEntry struct {
	LegacyID        int64  `json:"legacyId"`
	LegacyEmail     string `json:"legacyEmail"`
	LegacyEmailHash string `json:"legacyEmailHash"`
	NewID           string `json:"newId"`
}

// ReviewEntry maps a legacy review id to its target review.
type ReviewEntry struct {
	LegacyID int64  `json:"legacyId"`
	NewID    string `json:"newId"`
}

// TagMapping maps legacy taxonomy ids to target tag ids. Several
// legacy ids may map to the same target tag (the legacy taxonomy
// carried duplicates).
type TagMapping map[string]string

// UnmatchedFight is a legacy fight that failed matching, written to the
// review artifact with enough context to diagnose why.
type UnmatchedFight struct {
	LegacyID     int64  `json:"legacyId"`
	Fighter1Name string `json:"fighter1Name"`
	Fighter2Name string `json:"fighter2Name"`
	Date         string `json:"date"`
	EventName    string `json:"eventName"`
	Promotion    string `json:"promotion"`
	Reason       string `json:"reason"`
}

// UnmatchedReport is the unmatched-fights artifact: the records
// themselves, a per-promotion breakdown that surfaces systemic gaps
// (one promotion's naming convention not matching at all), and the
// fuzzy-confidence matches flagged for human review.
type UnmatchedReport struct {
	Fights       []UnmatchedFight `json:"fights"`
	ByPromotion  map[string]int   `json:"byPromotion"`
	FuzzyMatches []FightEntry     `json:"fuzzyMatches"`
}

// NewUnmatchedReport creates an empty report.
func NewUnmatchedReport() *UnmatchedReport {
	return &UnmatchedReport{
		Fights:       []UnmatchedFight{},
		ByPromotion:  make(map[string]int),
		FuzzyMatches: []FightEntry{},
	}
}

// AddFuzzy records a fuzzy-confidence match for review.
func (r *UnmatchedReport) AddFuzzy(e FightEntry) {
	r.FuzzyMatches = append(r.FuzzyMatches, e)
}

// Add records an unmatched fight and bumps its promotion count.
func (r *UnmatchedReport) Add(f UnmatchedFight) {
	r.Fights = append(r.Fights, f)
	promotion := f.Promotion
	if promotion == "" {
		promotion = "(unknown)"
	}
	r.ByPromotion[promotion]++
}

// Save writes an artifact as indented JSON. The whole file is
// overwritten atomically (temp file + rename): an idempotent re-run
// replaces the artifact, it never appends to it.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Load reads an artifact into v. A missing file is ErrMissingArtifact;
// callers at a required dependency boundary treat that as fatal.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, fperrors.ErrMissingArtifact)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// LoadFightEntries loads the fight-mapping artifact from dir.
func LoadFightEntries(dir string) ([]FightEntry, error) {
	var entries []FightEntry
	if err := Load(filepath.Join(dir, FightMappingFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadUserEntries loads the user-mapping artifact from dir.
func LoadUserEntries(dir string) ([]UserEntry, error) {
	var entries []UserEntry
	if err := Load(filepath.Join(dir, UserMappingFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadReviewEntries loads the review-mapping artifact from dir.
func LoadReviewEntries(dir string) ([]ReviewEntry, error) {
	var entries []ReviewEntry
	if err := Load(filepath.Join(dir, ReviewMappingFile), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadTagMapping loads the tag-mapping artifact from dir.
func LoadTagMapping(dir string) (TagMapping, error) {
	var m TagMapping
	if err := Load(filepath.Join(dir, TagMappingFile), &m); err != nil {
		return nil, err
	}
	return m, nil
}
