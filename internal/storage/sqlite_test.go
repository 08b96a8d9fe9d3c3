package storage

import (
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestIndexesExist verifies that indexes on the runs table are created by the migration.
func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_runs_run_date", "idx_runs_created"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_runs.sql")
	if err != nil || v != 1 {
		t.Errorf("parseMigrationVersion = (%d, %v), want (1, nil)", v, err)
	}
	if _, err := parseMigrationVersion("runs.sql"); err == nil {
		t.Error("expected error for unnumbered migration")
	}
}

// TestSaveAndGetRun saves a run and retrieves it by ID.
func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	want := Run{
		ID:             "run-001",
		CreatedAt:      now,
		RunDate:        "2025-03-05",
		Fingerprint:    "deadbeef12",
		ScriptPath:     "DAILY_VIDEO_SCRIPTS/DAILY_SCRIPT_2025-03-05.txt",
		FeedPatched:    true,
		MissingMarkers: `["time"]`,
	}
	if err := s.SaveRun(want); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := s.GetRun("run-001")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.RunDate != want.RunDate {
		t.Errorf("RunDate = %q, want %q", got.RunDate, want.RunDate)
	}
	if got.Fingerprint != want.Fingerprint {
		t.Errorf("Fingerprint = %q, want %q", got.Fingerprint, want.Fingerprint)
	}
	if got.ScriptPath != want.ScriptPath {
		t.Errorf("ScriptPath = %q, want %q", got.ScriptPath, want.ScriptPath)
	}
	if !got.FeedPatched {
		t.Error("FeedPatched = false, want true")
	}
	if got.MissingMarkers != want.MissingMarkers {
		t.Errorf("MissingMarkers = %q, want %q", got.MissingMarkers, want.MissingMarkers)
	}
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
}

func TestSaveRunDefaults(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveRun(Run{ID: "r", CreatedAt: time.Now(), RunDate: "2025-03-05"}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := s.GetRun("r")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.MissingMarkers != "[]" {
		t.Errorf("MissingMarkers = %q, want []", got.MissingMarkers)
	}
	if got.FeedPatched {
		t.Error("FeedPatched = true, want false")
	}
}

// TestGetRunNotFound verifies that retrieving a non-existent ID returns ErrNotFound.
func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun("does-not-exist")
	if err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestRecentRuns saves 10 runs and verifies limit and descending order.
func TestRecentRuns(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for j := 0; j < 10; j++ {
		r := Run{
			ID:        fmt.Sprintf("run-%02d", j),
			CreatedAt: base.Add(time.Duration(j) * 24 * time.Hour),
			RunDate:   base.AddDate(0, 0, j).Format("2006-01-02"),
		}
		if err := s.SaveRun(r); err != nil {
			t.Fatalf("SaveRun %d: %v", j, err)
		}
	}

	got, err := s.RecentRuns(5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d runs, want 5", len(got))
	}
	for k := 1; k < len(got); k++ {
		if got[k].CreatedAt.After(got[k-1].CreatedAt) {
			t.Errorf("not in descending order: [%d]=%v > [%d]=%v", k, got[k].CreatedAt, k-1, got[k-1].CreatedAt)
		}
	}
	if got[0].ID != "run-09" {
		t.Errorf("first result ID = %q, want %q", got[0].ID, "run-09")
	}
}

// TestRunsForDateAndLatestCompleted covers same-day reruns and failed runs.
func TestRunsForDateAndLatestCompleted(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)
	runs := []Run{
		{ID: "a", CreatedAt: base, RunDate: "2025-03-05", Fingerprint: "1111111111"},
		{ID: "b", CreatedAt: base.Add(time.Hour), RunDate: "2025-03-05", Fingerprint: "2222222222"},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour), RunDate: "2025-03-05", Status: StatusFailed, Error: "reading sitemap.xml: no such file"},
		{ID: "d", CreatedAt: base.Add(24 * time.Hour), RunDate: "2025-03-06", Fingerprint: "3333333333"},
	}
	for _, r := range runs {
		if err := s.SaveRun(r); err != nil {
			t.Fatalf("SaveRun %s: %v", r.ID, err)
		}
	}

	got, err := s.RunsForDate("2025-03-05")
	if err != nil {
		t.Fatalf("RunsForDate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d runs, want 3", len(got))
	}
	if got[0].ID != "c" || got[0].Status != StatusFailed {
		t.Errorf("newest run = %+v, want failed run c", got[0])
	}

	latest, err := s.LatestCompleted("2025-03-05")
	if err != nil {
		t.Fatalf("LatestCompleted: %v", err)
	}
	if latest.Fingerprint != "2222222222" {
		t.Errorf("LatestCompleted fingerprint = %q, want %q", latest.Fingerprint, "2222222222")
	}

	if _, err := s.LatestCompleted("2024-01-01"); err != ErrNotFound {
		t.Errorf("LatestCompleted(unknown) error = %v, want ErrNotFound", err)
	}
}
