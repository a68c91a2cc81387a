package records_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"registros/internal/core"
	"registros/internal/log"
	"registros/internal/records"
	"registros/internal/records/memory"
	"registros/internal/storage"
)

// backends runs fn once per repository implementation.
func backends(t *testing.T, fn func(t *testing.T, s *records.Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, newStore(t, memory.New()))
	})
	t.Run("sqlite", func(t *testing.T) {
		repo, err := storage.NewSQLiteRepository(":memory:")
		if err != nil {
			t.Fatalf("new sqlite repository: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		fn(t, newStore(t, repo))
	})
}

func newStore(t *testing.T, repo records.Repository) *records.Store {
	t.Helper()
	n := 0
	return records.NewStore(repo,
		records.WithLogger(log.Discard()),
		records.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("r%d", n)
		}),
	)
}

func draft(date, amount, desc string) core.Draft {
	return core.Draft{Date: date, Amount: amount, Description: desc}
}

func mustCreate(t *testing.T, s *records.Store, d core.Draft) core.Record {
	t.Helper()
	r, err := s.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("create %+v: %v", d, err)
	}
	return r
}

func visibleIDs(t *testing.T, s *records.Store) []string {
	t.Helper()
	vis, err := s.Visible(context.Background())
	if err != nil {
		t.Fatalf("visible: %v", err)
	}
	out := make([]string, len(vis))
	for i, r := range vis {
		out[i] = r.ID
	}
	return out
}

func sameRecord(a, b core.Record) bool {
	return a.ID == b.ID && a.Date == b.Date && a.Description == b.Description &&
		a.Notes == b.Notes && a.Status == b.Status && a.Amount.Equal(b.Amount)
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreate(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, core.Draft{Date: "2024-01-01", Amount: "10.5", Description: "Lunch", Notes: "with team"})
		b := mustCreate(t, s, draft("2024-01-02", "20", "Taxi"))

		if a.ID == "" || a.ID == b.ID {
			t.Fatalf("ids must be fresh and distinct: %q %q", a.ID, b.ID)
		}
		if a.Status != core.StatusOpen || b.Status != core.StatusOpen {
			t.Fatalf("new records must be open: %q %q", a.Status, b.Status)
		}
		if a.Date != "2024-01-01" || a.Description != "Lunch" || a.Notes != "with team" || !a.Amount.Equal(decimal.RequireFromString("10.5")) {
			t.Fatalf("fields do not match draft: %+v", a)
		}

		snap, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(snap.Records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(snap.Records))
		}
	})
}

func TestCreateIgnoresDraftStatus(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		closed := core.StatusClosed
		d := draft("2024-01-01", "1", "x")
		d.Status = &closed
		r := mustCreate(t, s, d)
		if r.Status != core.StatusOpen {
			t.Fatalf("create must always start open, got %q", r.Status)
		}
	})
}

func TestCreateUnparsableAmountIsZero(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		r := mustCreate(t, s, draft("2024-01-01", "abc", "x"))
		if !r.Amount.IsZero() {
			t.Fatalf("expected zero amount, got %s", r.Amount)
		}
	})
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		draft  core.Draft
		fields []string
	}{
		{"empty description", draft("2024-01-01", "1", ""), []string{core.FieldDescription}},
		{"empty date", draft("", "1", "x"), []string{core.FieldDate}},
		{"empty amount", draft("2024-01-01", " ", "x"), []string{core.FieldAmount}},
		{"everything empty", core.Draft{}, []string{core.FieldAmount, core.FieldDate, core.FieldDescription}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backends(t, func(t *testing.T, s *records.Store) {
				ctx := context.Background()
				mustCreate(t, s, draft("2024-01-01", "1", "existing"))

				_, err := s.Create(ctx, tt.draft)
				var verrs core.ValidationErrors
				if !errors.As(err, &verrs) {
					t.Fatalf("expected ValidationErrors, got %v", err)
				}
				if !equalIDs(verrs.Fields(), tt.fields) {
					t.Fatalf("fields = %v, want %v", verrs.Fields(), tt.fields)
				}
				snap, _ := s.Snapshot(ctx)
				if len(snap.Records) != 1 {
					t.Fatalf("collection size changed to %d", len(snap.Records))
				}
			})
		})
	}
}

func TestUpdate(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "10.5", "Lunch"))
		mustCreate(t, s, draft("2024-01-02", "20", "Taxi"))

		// move a to submitted so preservation is observable
		if _, err := s.ToggleSelect(ctx, a.ID); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := s.BulkSetStatus(ctx, core.StatusSubmitted); err != nil {
			t.Fatalf("bulk: %v", err)
		}

		got, ok, err := s.Update(ctx, a.ID, core.Draft{Date: "2024-03-03", Amount: "11", Description: "Dinner", Notes: "n"})
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}
		if got.ID != a.ID || got.Status != core.StatusSubmitted {
			t.Fatalf("id/status not preserved: %+v", got)
		}
		if got.Date != "2024-03-03" || got.Description != "Dinner" || got.Notes != "n" || !got.Amount.Equal(decimal.NewFromInt(11)) {
			t.Fatalf("fields not replaced: %+v", got)
		}

		reopen := core.StatusOpen
		got, ok, err = s.Update(ctx, a.ID, core.Draft{Date: "d", Amount: "1", Description: "x", Status: &reopen})
		if err != nil || !ok || got.Status != core.StatusOpen {
			t.Fatalf("explicit status not applied: %+v ok=%v err=%v", got, ok, err)
		}

		snap, _ := s.Snapshot(ctx)
		if len(snap.Records) != 2 || snap.Records[0].ID != a.ID {
			t.Fatalf("update must keep position: %+v", snap.Records)
		}
	})
}

func TestUpdateUnknownIDIsNoop(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))

		_, ok, err := s.Update(ctx, "missing", draft("2024-02-02", "2", "b"))
		if err != nil || ok {
			t.Fatalf("expected silent no-op, got ok=%v err=%v", ok, err)
		}
		snap, _ := s.Snapshot(ctx)
		if len(snap.Records) != 1 || !sameRecord(snap.Records[0], a) {
			t.Fatalf("collection changed: %+v", snap.Records)
		}
	})
}

func TestUpdateValidation(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		_, ok, err := s.Update(ctx, a.ID, draft("2024-01-01", "1", ""))
		if ok || !errors.Is(err, core.ErrEmptyDescription) {
			t.Fatalf("expected description error, got ok=%v err=%v", ok, err)
		}
		snap, _ := s.Snapshot(ctx)
		if snap.Records[0].Description != "a" {
			t.Fatalf("record mutated on invalid update: %+v", snap.Records[0])
		}
	})
}

func TestDeletePrunesSelection(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		b := mustCreate(t, s, draft("2024-01-02", "2", "b"))

		if _, err := s.ToggleSelect(ctx, a.ID); err != nil {
			t.Fatalf("select: %v", err)
		}
		ok, err := s.Delete(ctx, a.ID)
		if err != nil || !ok {
			t.Fatalf("delete: ok=%v err=%v", ok, err)
		}
		if s.IsSelected(a.ID) {
			t.Fatalf("deleted id still selected")
		}
		if got := visibleIDs(t, s); !equalIDs(got, []string{b.ID}) {
			t.Fatalf("visible = %v, want [%s]", got, b.ID)
		}

		ok, err = s.Delete(ctx, a.ID)
		if err != nil || ok {
			t.Fatalf("delete unknown: ok=%v err=%v", ok, err)
		}

		// the pruned selection leaves nothing for a bulk action
		if _, err := s.BulkSetStatus(ctx, core.StatusClosed); !errors.Is(err, records.ErrNothingSelected) {
			t.Fatalf("expected ErrNothingSelected, got %v", err)
		}
	})
}

func TestToggleSelect(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))

		on, err := s.ToggleSelect(ctx, a.ID)
		if err != nil || !on || !s.IsSelected(a.ID) {
			t.Fatalf("first toggle: on=%v err=%v", on, err)
		}
		on, err = s.ToggleSelect(ctx, a.ID)
		if err != nil || on || s.IsSelected(a.ID) {
			t.Fatalf("second toggle: on=%v err=%v", on, err)
		}

		on, err = s.ToggleSelect(ctx, "missing")
		if err != nil || on || s.IsSelected("missing") {
			t.Fatalf("unknown id must not be selected: on=%v err=%v", on, err)
		}
	})
}

func TestSelectionIndependentOfFilter(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		if _, err := s.ToggleSelect(ctx, a.ID); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := s.ToggleFilter(core.StatusOpen); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if len(visibleIDs(t, s)) != 0 {
			t.Fatalf("expected nothing visible")
		}
		n, err := s.BulkSetStatus(ctx, core.StatusClosed)
		if err != nil || n != 1 {
			t.Fatalf("hidden selected record must still be transitioned: n=%d err=%v", n, err)
		}
	})
}

func TestToggleFilter(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		if got := s.Filter(); len(got) != 1 || got[0] != core.StatusOpen {
			t.Fatalf("default filter = %v, want [open]", got)
		}
		on, err := s.ToggleFilter(core.StatusClosed)
		if err != nil || !on {
			t.Fatalf("toggle closed: on=%v err=%v", on, err)
		}
		on, err = s.ToggleFilter(core.StatusOpen)
		if err != nil || on {
			t.Fatalf("toggle open: on=%v err=%v", on, err)
		}
		if got := s.Filter(); len(got) != 1 || got[0] != core.StatusClosed {
			t.Fatalf("filter = %v, want [closed]", got)
		}
		if _, err := s.ToggleFilter("archived"); !errors.Is(err, core.ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestBulkSetStatus(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		b := mustCreate(t, s, draft("2024-01-02", "2", "b"))
		c := mustCreate(t, s, draft("2024-01-03", "3", "c"))

		for _, id := range []string{a.ID, b.ID} {
			if _, err := s.ToggleSelect(ctx, id); err != nil {
				t.Fatalf("select %s: %v", id, err)
			}
		}
		n, err := s.BulkSetStatus(ctx, core.StatusSubmitted)
		if err != nil || n != 2 {
			t.Fatalf("bulk: n=%d err=%v", n, err)
		}

		snap, _ := s.Snapshot(ctx)
		if len(snap.Selected) != 0 {
			t.Fatalf("selection must be cleared, got %v", snap.Selected)
		}
		statuses := map[string]core.Status{}
		for _, r := range snap.Records {
			statuses[r.ID] = r.Status
		}
		if statuses[a.ID] != core.StatusSubmitted || statuses[b.ID] != core.StatusSubmitted || statuses[c.ID] != core.StatusOpen {
			t.Fatalf("unexpected statuses: %v", statuses)
		}

		before, _ := s.Snapshot(ctx)
		n, err = s.BulkSetStatus(ctx, core.StatusClosed)
		if !errors.Is(err, records.ErrNothingSelected) || n != 0 {
			t.Fatalf("expected ErrNothingSelected, got n=%d err=%v", n, err)
		}
		after, _ := s.Snapshot(ctx)
		for i := range before.Records {
			if !sameRecord(before.Records[i], after.Records[i]) {
				t.Fatalf("empty bulk mutated %+v", after.Records[i])
			}
		}

		if _, err := s.BulkSetStatus(ctx, "bogus"); !errors.Is(err, core.ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestClosedCanBeReopened(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		for _, st := range []core.Status{core.StatusClosed, core.StatusOpen, core.StatusSubmitted, core.StatusClosed} {
			if _, err := s.ToggleSelect(ctx, a.ID); err != nil {
				t.Fatalf("select: %v", err)
			}
			if _, err := s.BulkSetStatus(ctx, st); err != nil {
				t.Fatalf("bulk %s: %v", st, err)
			}
			snap, _ := s.Snapshot(ctx)
			if snap.Records[0].Status != st {
				t.Fatalf("status = %s, want %s", snap.Records[0].Status, st)
			}
		}
	})
}

func TestVisibleKeepsInsertionOrder(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		var ids []string
		for i := 0; i < 5; i++ {
			ids = append(ids, mustCreate(t, s, draft("2024-01-01", "1", fmt.Sprintf("r%d", i))).ID)
		}
		// close the 2nd and 4th
		for _, id := range []string{ids[1], ids[3]} {
			if _, err := s.ToggleSelect(ctx, id); err != nil {
				t.Fatalf("select: %v", err)
			}
		}
		if _, err := s.BulkSetStatus(ctx, core.StatusClosed); err != nil {
			t.Fatalf("bulk: %v", err)
		}
		if got := visibleIDs(t, s); !equalIDs(got, []string{ids[0], ids[2], ids[4]}) {
			t.Fatalf("open visible = %v", got)
		}
		if _, err := s.ToggleFilter(core.StatusClosed); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if got := visibleIDs(t, s); !equalIDs(got, ids) {
			t.Fatalf("open+closed visible = %v, want %v", got, ids)
		}
	})
}

func TestExampleScenario(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "10.5", "Lunch"))
		b := mustCreate(t, s, draft("2024-01-02", "20", "Taxi"))
		if a.Status != core.StatusOpen || b.Status != core.StatusOpen {
			t.Fatalf("expected open records")
		}

		for _, id := range []string{a.ID, b.ID} {
			if _, err := s.ToggleSelect(ctx, id); err != nil {
				t.Fatalf("select: %v", err)
			}
		}
		if n, err := s.BulkSetStatus(ctx, core.StatusSubmitted); err != nil || n != 2 {
			t.Fatalf("bulk: n=%d err=%v", n, err)
		}

		snap, _ := s.Snapshot(ctx)
		if len(snap.Selected) != 0 {
			t.Fatalf("selection not cleared: %v", snap.Selected)
		}
		if got := visibleIDs(t, s); len(got) != 0 {
			t.Fatalf("filter {open} should show nothing, got %v", got)
		}

		// {open} -> {submitted}
		if _, err := s.ToggleFilter(core.StatusOpen); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if _, err := s.ToggleFilter(core.StatusSubmitted); err != nil {
			t.Fatalf("filter: %v", err)
		}
		if got := visibleIDs(t, s); !equalIDs(got, []string{a.ID, b.ID}) {
			t.Fatalf("filter {submitted} = %v, want [%s %s]", got, a.ID, b.ID)
		}
	})
}

func TestSnapshotSelectedInCollectionOrder(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
		b := mustCreate(t, s, draft("2024-01-02", "2", "b"))
		c := mustCreate(t, s, draft("2024-01-03", "3", "c"))
		for _, id := range []string{c.ID, a.ID} {
			if _, err := s.ToggleSelect(ctx, id); err != nil {
				t.Fatalf("select: %v", err)
			}
		}
		snap, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if !equalIDs(snap.Selected, []string{a.ID, c.ID}) {
			t.Fatalf("selected = %v", snap.Selected)
		}
		if len(snap.Visible) != 3 || snap.Visible[1].ID != b.ID {
			t.Fatalf("visible = %+v", snap.Visible)
		}
	})
}

func TestReport(t *testing.T) {
	backends(t, func(t *testing.T, s *records.Store) {
		ctx := context.Background()
		a := mustCreate(t, s, draft("2024-01-01", "10.5", "Lunch"))
		mustCreate(t, s, draft("2024-01-02", "20", "Taxi"))
		if _, err := s.ToggleSelect(ctx, a.ID); err != nil {
			t.Fatalf("select: %v", err)
		}
		if _, err := s.BulkSetStatus(ctx, core.StatusClosed); err != nil {
			t.Fatalf("bulk: %v", err)
		}

		r, err := s.Report(ctx)
		if err != nil {
			t.Fatalf("report: %v", err)
		}
		if r.Count != 2 || !r.Total.Equal(decimal.RequireFromString("30.5")) {
			t.Fatalf("unexpected totals: %+v", r)
		}
		if r.ByStatus[0].Count != 1 || r.ByStatus[2].Count != 1 || !r.ByStatus[2].Total.Equal(decimal.RequireFromString("10.5")) {
			t.Fatalf("unexpected per-status totals: %+v", r.ByStatus)
		}
	})
}

func TestWithFilterOption(t *testing.T) {
	s := records.NewStore(memory.New(), records.WithLogger(log.Discard()),
		records.WithFilter(core.StatusSubmitted, core.StatusClosed, "bogus"))
	got := s.Filter()
	if len(got) != 2 || got[0] != core.StatusSubmitted || got[1] != core.StatusClosed {
		t.Fatalf("filter = %v", got)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := records.NewStore(memory.New(), records.WithLogger(log.Discard()))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		r := mustCreate(t, s, draft("2024-01-01", "1", "x"))
		if seen[r.ID] {
			t.Fatalf("duplicate id %s", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestIDCollisionRetries(t *testing.T) {
	calls := 0
	s := records.NewStore(memory.New(), records.WithLogger(log.Discard()),
		records.WithIDGenerator(func() string {
			calls++
			if calls <= 2 {
				return "same"
			}
			return "other"
		}))
	a := mustCreate(t, s, draft("2024-01-01", "1", "a"))
	b := mustCreate(t, s, draft("2024-01-01", "1", "b"))
	if a.ID != "same" || b.ID != "other" {
		t.Fatalf("ids = %q %q", a.ID, b.ID)
	}
}

func TestNewStoreWithoutOptions(t *testing.T) {
	s := records.NewStore(memory.New())
	r := mustCreate(t, s, draft("2024-01-01", "1", "x"))
	if r.ID == "" || r.Status != core.StatusOpen {
		t.Fatalf("record = %+v", r)
	}
	if got := s.Filter(); len(got) != 1 || got[0] != core.StatusOpen {
		t.Fatalf("filter = %v, want [open]", got)
	}
}
