package migrate

import (
	"context"
	"sort"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
	"github.com/fightpulse/migrate-cli/pkg/logging"
	"github.com/fightpulse/migrate-cli/pkg/mapping"
	"github.com/fightpulse/migrate-cli/pkg/store"
)

// The legacy tag taxonomy is a fixed table, keyed by the small integer
// ids the legacy schema used. Names are NOT derived from legacy free
// text: the legacy table carries duplicate and ambiguous names across
// ids, so the canonical name per id is pinned here. Several legacy ids
// map to the same canonical name (1 and 38 are both "Comeback"); those
// must resolve to the same target tag.
var legacyTagNames = map[string]string{
	"1":  "Comeback",
	"2":  "War",
	"3":  "Knockout of the Year Contender",
	"4":  "Submission of the Year Contender",
	"5":  "Robbery",
	"6":  "Slugfest",
	"7":  "Technical Masterclass",
	"8":  "Grappling Clinic",
	"9":  "One-Sided Beatdown",
	"10": "Upset",
	"11": "Snoozefest",
	"12": "Point Fighting",
	"13": "Wall and Stall",
	"14": "Lay and Pray",
	"15": "Brawl",
	"16": "Early Stoppage",
	"17": "Late Stoppage",
	"18": "Buzzer Beater",
	"19": "Title Fight Classic",
	"20": "Flash Knockout",
	"38": "Comeback",
}

// tagCategories maps canonical names onto the category enum. Unmapped
// names fall through to the default category.
var tagCategories = map[string]string{
	"Comeback":                         "drama",
	"War":                              "action",
	"Slugfest":                         "action",
	"Brawl":                            "action",
	"Flash Knockout":                   "action",
	"Knockout of the Year Contender":   "accolade",
	"Submission of the Year Contender": "accolade",
	"Title Fight Classic":              "accolade",
	"Technical Masterclass":            "accolade",
	"Grappling Clinic":                 "accolade",
	"Robbery":                          "controversy",
	"Early Stoppage":                   "controversy",
	"Late Stoppage":                    "controversy",
	"Snoozefest":                       "pace",
	"Point Fighting":                   "pace",
	"Wall and Stall":                   "pace",
	"Lay and Pray":                     "pace",
	"Upset":                            "drama",
	"Buzzer Beater":                    "drama",
	"One-Sided Beatdown":               "outcome",
}

const defaultTagCategory = "general"

// lowRatedOnlyTags are only offered on low-rated fights; everything
// else is eligible for both bands except the accolade tags, which are
// high-rated only.
var lowRatedOnlyTags = map[string]bool{
	"Snoozefest":     true,
	"Point Fighting": true,
	"Wall and Stall": true,
	"Lay and Pray":   true,
}

func tagBands(name string) (allowsLow, allowsHigh bool) {
	if lowRatedOnlyTags[name] {
		return true, false
	}
	if tagCategories[name] == "accolade" {
		return false, true
	}
	return true, true
}

// TaxonomyMapper ensures canonical tag rows exist and maps legacy tag
// ids onto target tag ids.
type TaxonomyMapper struct {
	tags   TagStore
	logger logging.Logger
	dryRun bool
}

// NewTaxonomyMapper creates the mapper.
func NewTaxonomyMapper(tags TagStore, logger logging.Logger, dryRun bool) *TaxonomyMapper {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TaxonomyMapper{
		tags:   tags,
		logger: logger.With(logging.F("stage", StageTags)),
		dryRun: dryRun,
	}
}

// EnsureCanonical creates any canonical tags missing from the target
// store and returns the legacy-id to target-tag-id mapping. Tags are
// keyed by name, so the duplicate legacy ids collapse onto one target
// tag.
func (m *TaxonomyMapper) EnsureCanonical(ctx context.Context) (mapping.TagMapping, error) {
	byName := make(map[string]string) // canonical name -> target tag id

	names := make([]string, 0, len(legacyTagNames))
	seen := make(map[string]struct{}, len(legacyTagNames))
	for _, name := range legacyTagNames {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		existing, err := m.tags.FindTagByName(ctx, name)
		switch {
		case err == nil:
			byName[name] = existing.ID
			continue
		case !fperrors.IsNotFound(err):
			return nil, err
		}

		if m.dryRun {
			byName[name] = SyntheticID()
			continue
		}

		category, ok := tagCategories[name]
		if !ok {
			category = defaultTagCategory
		}
		allowsLow, allowsHigh := tagBands(name)
		t := &store.Tag{
			Name:            name,
			Category:        category,
			AllowsLowRated:  allowsLow,
			AllowsHighRated: allowsHigh,
		}
		if err := m.tags.CreateTag(ctx, t); err != nil {
			if fperrors.IsConflict(err) {
				if winner, ferr := m.tags.FindTagByName(ctx, name); ferr == nil {
					byName[name] = winner.ID
					continue
				}
			}
			return nil, err
		}
		m.logger.Info("canonical tag created", logging.F("name", name), logging.F("category", category))
		byName[name] = t.ID
	}

	tm := make(mapping.TagMapping, len(legacyTagNames))
	for legacyID, name := range legacyTagNames {
		tm[legacyID] = byName[name]
	}
	return tm, nil
}
