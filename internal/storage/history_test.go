package storage

import (
	"testing"
	"time"
)

func TestAppendAndList(t *testing.T) {
	store := NewHistoryStore(t.TempDir())

	if err := store.Append(RunRecord{Component: "bundleid", Action: "repair", Result: "ok"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(RunRecord{Component: "plist", Action: "fix", Result: "failed", Detail: "still missing CFBundleVersion"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Component != "bundleid" || records[1].Component != "plist" {
		t.Errorf("records out of order: %+v", records)
	}
	if records[0].Time.IsZero() {
		t.Error("Append() did not default the record time")
	}
}

func TestLast(t *testing.T) {
	store := NewHistoryStore(t.TempDir())

	last, err := store.Last()
	if err != nil || last != nil {
		t.Fatalf("Last() on empty history = %+v, %v", last, err)
	}

	older := RunRecord{Component: "pods", Result: "ok", Time: time.Now().Add(-time.Hour)}
	newer := RunRecord{Component: "recover", Result: "ok"}
	for _, rec := range []RunRecord{older, newer} {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	last, err = store.Last()
	if err != nil {
		t.Fatalf("Last() error = %v", err)
	}
	if last.Component != "recover" {
		t.Errorf("Last() = %+v, want recover", last)
	}
}

func TestClear(t *testing.T) {
	store := NewHistoryStore(t.TempDir())
	if err := store.Append(RunRecord{Component: "scripts", Result: "ok"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("history not cleared: %+v", records)
	}
	// Clearing an already-empty store is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() on empty error = %v", err)
	}
}
