package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()

	l, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		if err := l.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return l
}

func TestRecordBuild(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, id := range []string{"build-1", "build-2", "build-3"} {
		if err := l.RecordBuild(ctx, "libxml2", "fuzzing", id); err != nil {
			t.Fatalf("RecordBuild(%q) error = %v", id, err)
		}
	}

	ids, err := l.History(ctx, "libxml2", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if want := []string{"build-1", "build-2", "build-3"}; !slices.Equal(ids, want) {
		t.Errorf("History() = %v, want %v", ids, want)
	}
}

func TestRecordBuildEviction(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for i := 1; i <= maxHistoryLength+6; i++ {
		if err := l.RecordBuild(ctx, "curl", "fuzzing", fmt.Sprintf("build-%d", i)); err != nil {
			t.Fatalf("RecordBuild() error = %v", err)
		}
	}

	ids, err := l.History(ctx, "curl", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ids) != maxHistoryLength {
		t.Fatalf("len(History()) = %d, want %d", len(ids), maxHistoryLength)
	}
	// The oldest entries are gone, the newest survive in order.
	if ids[0] != "build-7" {
		t.Errorf("History()[0] = %q, want %q", ids[0], "build-7")
	}
	if ids[len(ids)-1] != fmt.Sprintf("build-%d", maxHistoryLength+6) {
		t.Errorf("History() last = %q, want %q", ids[len(ids)-1], fmt.Sprintf("build-%d", maxHistoryLength+6))
	}
}

func TestHistorySeparatesTagsAndProjects(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.RecordBuild(ctx, "libxml2", "fuzzing", "fuzz-1"); err != nil {
		t.Fatalf("RecordBuild() error = %v", err)
	}
	if err := l.RecordBuild(ctx, "libxml2", "coverage", "cov-1"); err != nil {
		t.Fatalf("RecordBuild() error = %v", err)
	}
	if err := l.RecordBuild(ctx, "curl", "fuzzing", "fuzz-2"); err != nil {
		t.Fatalf("RecordBuild() error = %v", err)
	}

	tests := []struct {
		project string
		tag     string
		want    []string
	}{
		{"libxml2", "fuzzing", []string{"fuzz-1"}},
		{"libxml2", "coverage", []string{"cov-1"}},
		{"curl", "fuzzing", []string{"fuzz-2"}},
	}
	for _, tt := range tests {
		ids, err := l.History(ctx, tt.project, tt.tag)
		if err != nil {
			t.Fatalf("History(%s, %s) error = %v", tt.project, tt.tag, err)
		}
		if !slices.Equal(ids, tt.want) {
			t.Errorf("History(%s, %s) = %v, want %v", tt.project, tt.tag, ids, tt.want)
		}
	}
}

func TestHistoryUnknownProject(t *testing.T) {
	l := openTestLedger(t)

	ids, err := l.History(context.Background(), "unknown", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("History() = %v, want empty", ids)
	}
}

func TestRecordBuildConcurrent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	const recorders = 16

	var wg sync.WaitGroup
	errs := make([]error, recorders)
	for i := range recorders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = l.RecordBuild(ctx, "libxml2", "fuzzing", fmt.Sprintf("build-%d", i))
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("RecordBuild() %d error = %v", i, err)
		}
	}

	ids, err := l.History(ctx, "libxml2", "fuzzing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ids) != recorders {
		t.Fatalf("len(History()) = %d, want %d: a conflicting append was dropped", len(ids), recorders)
	}

	// Every recorder's identifier made it in, in some order.
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	for i := range recorders {
		want := fmt.Sprintf("build-%d", i)
		if _, found := slices.BinarySearch(sorted, want); !found {
			t.Errorf("History() missing %q", want)
		}
	}
}

func TestRecordBuildCanceledContext(t *testing.T) {
	l := openTestLedger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.RecordBuild(ctx, "libxml2", "fuzzing", "build-1"); err == nil {
		t.Fatal("RecordBuild() error = nil, want context error")
	}
}
