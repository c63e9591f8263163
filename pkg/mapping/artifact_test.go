package mapping

import (
	"os"
	"path/filepath"
	"testing"

	fperrors "github.com/fightpulse/migrate-cli/pkg/errors"
)

func TestSaveAndLoadFightEntries(t *testing.T) {
	dir := t.TempDir()
	entries := []FightEntry{
		{LegacyID: 1, NewID: "f-1", Fighter1Name: "Jon Jones", Fighter2Name: "Stipe Miocic", Date: "2024-11-16", EventName: "UFC 309", MatchKind: "exact"},
		{LegacyID: 2, NewID: "f-2", Fighter1Name: "Jose Aldo", Fighter2Name: "Max Holloway", Date: "2017-06-03", EventName: "UFC 212", MatchKind: "created"},
	}

	if err := Save(filepath.Join(dir, FightMappingFile), entries); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFightEntries(dir)
	if err != nil {
		t.Fatalf("LoadFightEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != entries[0] || got[1] != entries[1] {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}

func TestSaveOverwritesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, UserMappingFile)

	first := []UserEntry{{LegacyID: 1, NewID: "u-1"}, {LegacyID: 2, NewID: "u-2"}}
	if err := Save(path, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A re-run writes a smaller set; the old contents must be gone, not
	// appended to.
	second := []UserEntry{{LegacyID: 3, NewID: "u-3"}}
	if err := Save(path, second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := LoadUserEntries(dir)
	if err != nil {
		t.Fatalf("LoadUserEntries: %v", err)
	}
	if len(got) != 1 || got[0].LegacyID != 3 {
		t.Errorf("got %+v, want only legacy id 3", got)
	}

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not remain, stat err = %v", err)
	}
}

func TestSaveCreatesArtifactDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "artifacts")
	if err := Save(filepath.Join(dir, TagMappingFile), TagMapping{"1": "t-1"}); err != nil {
		t.Fatalf("Save into missing dir: %v", err)
	}

	got, err := LoadTagMapping(dir)
	if err != nil {
		t.Fatalf("LoadTagMapping: %v", err)
	}
	if got["1"] != "t-1" {
		t.Errorf("got %v, want {1: t-1}", got)
	}
}

func TestLoadMissingArtifact(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFightEntries(dir); !fperrors.IsMissingArtifact(err) {
		t.Errorf("LoadFightEntries: got %v, want ErrMissingArtifact", err)
	}
	if _, err := LoadUserEntries(dir); !fperrors.IsMissingArtifact(err) {
		t.Errorf("LoadUserEntries: got %v, want ErrMissingArtifact", err)
	}
	if _, err := LoadReviewEntries(dir); !fperrors.IsMissingArtifact(err) {
		t.Errorf("LoadReviewEntries: got %v, want ErrMissingArtifact", err)
	}
	if _, err := LoadTagMapping(dir); !fperrors.IsMissingArtifact(err) {
		t.Errorf("LoadTagMapping: got %v, want ErrMissingArtifact", err)
	}
}

func TestLoadMalformedArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ReviewMappingFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadReviewEntries(dir)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if fperrors.IsMissingArtifact(err) {
		t.Error("decode failure must not be reported as missing")
	}
}

func TestUnmatchedReportAdd(t *testing.T) {
	r := NewUnmatchedReport()
	r.Add(UnmatchedFight{LegacyID: 1, Promotion: "UFC", Reason: "no event"})
	r.Add(UnmatchedFight{LegacyID: 2, Promotion: "UFC", Reason: "no fighter"})
	r.Add(UnmatchedFight{LegacyID: 3, Promotion: "", Reason: "no event"})

	if len(r.Fights) != 3 {
		t.Errorf("len(Fights) = %d, want 3", len(r.Fights))
	}
	if r.ByPromotion["UFC"] != 2 {
		t.Errorf("ByPromotion[UFC] = %d, want 2", r.ByPromotion["UFC"])
	}
	if r.ByPromotion["(unknown)"] != 1 {
		t.Errorf("ByPromotion[(unknown)] = %d, want 1", r.ByPromotion["(unknown)"])
	}
}

func TestUnmatchedReportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewUnmatchedReport()
	r.Add(UnmatchedFight{LegacyID: 1, Promotion: "PRIDE", Reason: "no event"})
	r.AddFuzzy(FightEntry{LegacyID: 2, NewID: "f-2", MatchKind: "fuzzy"})

	path := filepath.Join(dir, UnmatchedFightsFile)
	if err := Save(path, r); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var back UnmatchedReport
	if err := Load(path, &back); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(back.Fights) != 1 || back.Fights[0].Promotion != "PRIDE" {
		t.Errorf("Fights = %+v", back.Fights)
	}
	if len(back.FuzzyMatches) != 1 || back.FuzzyMatches[0].NewID != "f-2" {
		t.Errorf("FuzzyMatches = %+v", back.FuzzyMatches)
	}
	if back.ByPromotion["PRIDE"] != 1 {
		t.Errorf("ByPromotion = %v", back.ByPromotion)
	}
}
