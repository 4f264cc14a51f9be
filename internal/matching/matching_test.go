package matching

import (
	"context"
	"testing"

	"github.com/example/accessride/internal/directory"
	"github.com/example/accessride/internal/models"
)

func seedDirectory(t *testing.T, drivers ...models.Driver) *directory.Index {
	t.Helper()
	idx := directory.NewIndex()
	for _, d := range drivers {
		if err := idx.Upsert(context.Background(), d); err != nil {
			t.Fatalf("seed driver %s: %v", d.ID, err)
		}
	}
	return idx
}

func TestEmptyRequestMatchesAllAvailable(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: true},
		models.Driver{ID: "d2", Available: true},
		models.Driver{ID: "d3", Available: false},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
}

func TestWheelchairFilterExcludesUnequipped(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: true, Vehicle: models.Vehicle{Features: []string{"wheelchair"}}},
		models.Driver{ID: "d2", Available: true, Vehicle: models.Vehicle{Features: []string{"assistance"}}},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), []string{models.OptWheelchair})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d1" {
		t.Fatalf("expected only d1, got %+v", got)
	}
}

func TestEitherAlwaysSatisfied(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: true, Vehicle: models.Vehicle{Features: nil}},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), []string{models.OptEither})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected d1 to pass on 'either', got %d candidates", len(got))
	}
}

func TestAllTagsMustMatch(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: true, Vehicle: models.Vehicle{Features: []string{"wheelchair"}}},
		models.Driver{ID: "d2", Available: true, Vehicle: models.Vehicle{Features: []string{"wheelchair", "assistance"}}},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), []string{models.OptWheelchair, models.OptAssistance})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d2" {
		t.Fatalf("expected only d2, got %+v", got)
	}
}

func TestCaseSensitiveMatch(t *testing.T) {
	d := models.Driver{ID: "d1", Available: true, Vehicle: models.Vehicle{Features: []string{"Wheelchair"}}}
	if Compatible(d, []string{"wheelchair"}) {
		t.Fatal("feature match must be case-sensitive")
	}
}

func TestNoAvailableDriversReturnsEmpty(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: false},
		models.Driver{ID: "d2", Available: false},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestEnumerationOrderPreserved(t *testing.T) {
	idx := seedDirectory(t,
		models.Driver{ID: "d1", Available: true},
		models.Driver{ID: "d2", Available: true},
		models.Driver{ID: "d3", Available: true},
	)
	s := NewService(idx)
	got, err := s.FindCandidates(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"d1", "d2", "d3"} {
		if got[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].ID)
		}
	}
}
