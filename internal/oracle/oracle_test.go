/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package oracle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.yaml")
	doc := `
STAR:
  - instant: 2026-03-01T10:00:00Z
    merit: 0.4
    annotations:
      ra: 83.6
  - instant: 2026-03-01T11:30:00Z
    merit: 0.1
MOON: []
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadStatic(path)
	if err != nil {
		t.Fatalf("LoadStatic() error = %v", err)
	}
	if s.Kinds() != 1 {
		t.Fatalf("Kinds() = %d, want 1", s.Kinds())
	}

	got, err := s.Candidates(context.Background(), "STAR")
	if err != nil {
		t.Fatalf("Candidates() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if !got[0].Instant.Equal(want) {
		t.Errorf("instant = %v, want %v", got[0].Instant, want)
	}
	if got[1].Merit != 0.1 {
		t.Errorf("merit = %v, want 0.1", got[1].Merit)
	}
	if got[0].Annotations["ra"] != 83.6 {
		t.Errorf("annotation ra = %v, want 83.6", got[0].Annotations["ra"])
	}

	none, err := s.Candidates(context.Background(), "UNKNOWN")
	if err != nil || len(none) != 0 {
		t.Fatalf("Candidates(UNKNOWN) = %v, %v; want empty", none, err)
	}
}

func TestCandidatesReturnsCopy(t *testing.T) {
	s := NewStatic(map[string][]Candidate{"STAR": {{Merit: 1}}})
	got, _ := s.Candidates(context.Background(), "STAR")
	got[0].Merit = 99
	again, _ := s.Candidates(context.Background(), "STAR")
	if again[0].Merit != 1 {
		t.Fatalf("stored merit = %v, want 1", again[0].Merit)
	}
}

func TestCandidatesHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStatic(nil).Candidates(ctx, "STAR"); err == nil {
		t.Fatal("expected context error")
	}
}

func TestLoadStaticMissingFile(t *testing.T) {
	if _, err := LoadStatic(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
