package entity

import "testing"

func TestDedupCategories_KeepsFirstOccurrenceInOrder(t *testing.T) {
	got := DedupCategories([]string{"go", "testing", "go", "cli", "testing"})
	want := []string{"go", "testing", "cli"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDedupCategories_EmptyInput(t *testing.T) {
	got := DedupCategories(nil)
	if len(got) != 0 {
		t.Fatalf("expected empty result for nil input, got %v", got)
	}
}

func TestDedupCategories_NoDuplicates(t *testing.T) {
	in := []string{"a", "b", "c"}
	got := DedupCategories(in)
	if len(got) != 3 {
		t.Fatalf("got %v, want all 3 preserved", got)
	}
}
