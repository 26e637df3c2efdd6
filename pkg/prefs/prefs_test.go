package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/swapfeed/swapfeed/internal/utils"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prefs.sqlite"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	s := testStore(t)
	got := s.Load(context.Background())
	if !utils.AreSlicesEqual(got.Targets, nil) || got.Sort != "hot" || got.ViewMode != "list" || got.AutoscrollSpeed != 5 {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	want := Preferences{
		Targets:         []string{"news", "worldnews"},
		Sources:         []string{"pics"},
		Sort:            "top",
		TimeFilter:      "week",
		ViewMode:        "fullscreen",
		Autoscroll:      true,
		AutoscrollSpeed: 8,
	}
	if err := s.Save(context.Background(), want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := s.Load(context.Background())
	if !utils.AreSlicesEqual(got.Targets, want.Targets) || !utils.AreSlicesEqual(got.Sources, want.Sources) {
		t.Fatalf("collections did not round trip: %+v", got)
	}
	if got.Sort != want.Sort || got.TimeFilter != want.TimeFilter || got.ViewMode != want.ViewMode {
		t.Fatalf("settings did not round trip: %+v", got)
	}
	if !got.Autoscroll || got.AutoscrollSpeed != 8 {
		t.Fatalf("autoscroll did not round trip: %+v", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := Default()
	first.Sort = "new"
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := Default()
	second.Sort = "top"
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if got := s.Load(ctx); got.Sort != "top" {
		t.Fatalf("expected the last save to win, got %+v", got)
	}
}

func TestLoadCorruptBlobFallsBack(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.sql.ExecContext(ctx,
		"INSERT INTO prefs(key, value) VALUES(?, ?)", blobKey, "{not json")
	if err != nil {
		t.Fatalf("failed to seed corrupt blob: %v", err)
	}

	got := s.Load(ctx)
	if got.Sort != "hot" || got.AutoscrollSpeed != 5 {
		t.Fatalf("corrupt blob must fall back to defaults, got %+v", got)
	}
}
