package search

import (
	"io"
	"testing"

	"github.com/gyanbazaar/ignou-study-bot/internal/logger"
	"github.com/gyanbazaar/ignou-study-bot/internal/storage"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx := NewIndex(logger.NewWithWriter("error", io.Discard))
	err := idx.Rebuild([]storage.Product{
		{ID: 1, Name: "BCS011 Solved Assignment 2024", Description: "Computer basics solved assignment", PriceINR: 49},
		{ID: 2, Name: "MCS021 Solved Assignment 2024", Description: "Data structures solved assignment", PriceINR: 59},
		{ID: 3, Name: "BCA Guess Paper Semester 1", Description: "Important questions for term end exam", PriceINR: 99},
	})
	if err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	return idx
}

func TestIndexSearch(t *testing.T) {
	t.Parallel()

	t.Run("exact course code ranks first", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)

		results, err := idx.Search("bcs011", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("expected results")
		}
		if results[0].ProductID != 1 {
			t.Errorf("expected product 1 first, got %+v", results[0])
		}
		if results[0].Confidence != 1.0 {
			t.Errorf("top hit confidence: expected 1.0, got %v", results[0].Confidence)
		}
	})

	t.Run("description terms match", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)

		results, err := idx.Search("data structures", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) == 0 || results[0].ProductID != 2 {
			t.Errorf("expected product 2 first, got %+v", results)
		}
	})

	t.Run("top n respected", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)

		results, err := idx.Search("solved assignment", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) > 1 {
			t.Errorf("expected at most 1 result, got %d", len(results))
		}
	})

	t.Run("no match yields empty", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)

		results, err := idx.Search("astrophysics", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %+v", results)
		}
	})

	t.Run("empty query yields nothing", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)

		results, err := idx.Search("   ", 5)
		if err != nil {
			t.Fatal(err)
		}
		if results != nil {
			t.Errorf("expected nil, got %+v", results)
		}
	})

	t.Run("empty index searches safely", func(t *testing.T) {
		t.Parallel()
		idx := NewIndex(logger.NewWithWriter("error", io.Discard))
		results, err := idx.Search("anything", 5)
		if err != nil || results != nil {
			t.Errorf("expected nil results on empty index, got %v, %v", results, err)
		}
	})

	t.Run("rebuild replaces contents", func(t *testing.T) {
		t.Parallel()
		idx := testIndex(t)
		if err := idx.Rebuild([]storage.Product{{ID: 9, Name: "MEG01 British Poetry Notes"}}); err != nil {
			t.Fatal(err)
		}

		results, err := idx.Search("poetry", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].ProductID != 9 {
			t.Errorf("expected only the new product, got %+v", results)
		}
		if old, _ := idx.Search("bcs011", 5); len(old) != 0 {
			t.Errorf("old products still indexed: %+v", old)
		}
	})
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"BCS-011 Solved", []string{"bcs", "011", "solved"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
		{"!!!", nil},
	}

	for _, tt := range tests {
		got := tokenize(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}

func TestRankConfidence(t *testing.T) {
	t.Parallel()

	if rankConfidence(0) != 1.0 {
		t.Errorf("rank 0: expected 1.0, got %v", rankConfidence(0))
	}
	if rankConfidence(1) >= rankConfidence(0) {
		t.Error("confidence must decay with rank")
	}
	if rankConfidence(100) != 0.2 {
		t.Errorf("deep ranks must floor at 0.2, got %v", rankConfidence(100))
	}
}
