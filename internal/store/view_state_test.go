package store

import (
	"os"
	"testing"
)

func TestViewState_RoundTrip(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	st, err := s.LoadViewState()
	if err != nil {
		t.Fatalf("LoadViewState: %v", err)
	}
	if len(st.ExpandedSet("thread:a")) != 0 {
		t.Fatalf("expected empty state")
	}
	st.SetExpanded("thread:a", []string{"c2", "c1"})
	if err := s.SaveViewState(st); err != nil {
		t.Fatalf("SaveViewState: %v", err)
	}

	got, err := s.LoadViewState()
	if err != nil {
		t.Fatalf("LoadViewState: %v", err)
	}
	if ids := got.Expanded["thread:a"]; len(ids) != 2 || ids[0] != "c1" {
		t.Fatalf("expected sorted ids [c1 c2]; got %v", ids)
	}
	if set := got.ExpandedSet("thread:a"); !set["c2"] {
		t.Fatalf("expected c2 in set")
	}

	got.SetExpanded("thread:a", nil)
	if _, ok := got.Expanded["thread:a"]; ok {
		t.Fatalf("expected empty list to forget the key")
	}
}

func TestViewState_CorruptReadsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	if err := os.WriteFile(s.viewStatePath(), []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	st, err := s.LoadViewState()
	if err != nil || st.Version != 1 || st.Expanded == nil {
		t.Fatalf("expected empty state; got %+v %v", st, err)
	}
}
