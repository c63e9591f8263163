package migrate

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Skip reasons. Every skipped record lands in exactly one bucket so
// the report reconstructs: total = created + existed + skipped + errors.
const (
	SkipDeleted      = "deleted"
	SkipInvalidDate  = "invalidDate"
	SkipInvalidName  = "invalidName"
	SkipInvalidEmail = "invalidEmail"
	SkipInvalidScore = "invalidScore"
	SkipNoEvent      = "noEvent"
	SkipNoFighter    = "noFighter"
	SkipNoFight      = "noFight"
	SkipNoUser       = "noUser"
	SkipNoTag        = "noTag"
	SkipNoReview     = "noReview"
	SkipDuplicate    = "duplicate"
)

// StageReport carries the machine-parsable counts for one stage.
type StageReport struct {
	Stage string `json:"stage"`
	// Total is the number of distinct work items the stage considered
	// (legacy rows, or extracted entities for the event and fighter
	// stages, whose skip buckets additionally count source rows).
	Total        int            `json:"total"`
	Created      int            `json:"created"`
	Existed      int            `json:"alreadyExisted"`
	Skipped      map[string]int `json:"skipped"`
	Errors       int            `json:"errors"`
	FuzzyMatches int            `json:"fuzzyMatches"`
	Collisions   int            `json:"collisions"`

	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// NewStageReport creates an empty report for the named stage.
func NewStageReport(stage string) *StageReport {
	return &StageReport{
		Stage:     stage,
		Skipped:   map[string]int{},
		StartedAt: time.Now().UTC(),
	}
}

// Skip counts a skipped record under the given reason bucket.
func (r *StageReport) Skip(reason string) {
	r.Skipped[reason]++
}

// SkippedTotal returns the sum over all skip buckets.
func (r *StageReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

// Accounted returns created + existed + skipped + errors.
func (r *StageReport) Accounted() int {
	return r.Created + r.Existed + r.SkippedTotal() + r.Errors
}

// Finish stamps the completion time and returns the report.
func (r *StageReport) Finish() *StageReport {
	r.CompletedAt = time.Now().UTC()
	return r
}

// RunReport aggregates the stage reports of one orchestrator run.
type RunReport struct {
	DryRun      bool           `json:"dryRun"`
	Stages      []*StageReport `json:"stages"`
	FailedStage string         `json:"failedStage,omitempty"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// StageByName returns the report for the named stage, or nil.
func (r *RunReport) StageByName(name string) *StageReport {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s
		}
	}
	return nil
}

// syntheticIDPrefix marks placeholder ids handed out in dry-run so
// they are clearly distinguishable from real target ids.
const syntheticIDPrefix = "dry-"

// SyntheticID returns a placeholder target id for a dry-run create.
func SyntheticID() string {
	return syntheticIDPrefix + uuid.NewString()
}

// IsSyntheticID reports whether id is a dry-run placeholder.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, syntheticIDPrefix)
}
