// Package records holds the Record Store: the expense collection together
// with the status filter and the multi-selection used for bulk actions.
//
// Every operation runs to completion under one lock, so a Snapshot taken
// after a call always reflects that call. The store never pushes changes;
// callers re-read Snapshot or Visible after each mutation.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"registros/internal/core"
	"registros/internal/log"
)

// ErrNothingSelected is returned by BulkSetStatus when the selection is empty.
var ErrNothingSelected = errors.New("nothing selected")

// Snapshot is everything a presentation layer needs to re-render.
type Snapshot struct {
	Records  []core.Record // whole collection, insertion order
	Visible  []core.Record // Records filtered by Filter
	Selected []string      // selected ids, insertion order
	Filter   []core.Status // active statuses, Statuses() order
}

type Store struct {
	mu       sync.Mutex
	repo     Repository
	selected Set[string]
	filter   Set[core.Status]
	newID    func() string
	log      *log.Logger
}

type Option func(*Store)

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l.WithComponent(log.ComponentStore)
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithFilter sets the initial filter. Invalid statuses are ignored.
func WithFilter(statuses ...core.Status) Option {
	return func(s *Store) {
		s.filter = NewSet[core.Status]()
		for _, st := range statuses {
			if st.IsValid() {
				s.filter[st] = struct{}{}
			}
		}
	}
}

// NewStore builds a store over repo. The filter starts as {open}.
func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		selected: NewSet[string](),
		filter:   NewSet(core.StatusOpen),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.FromContext(context.Background()).WithComponent(log.ComponentStore)
	}
	return s
}

// logger prefers the request-scoped logger so session attributes survive.
func (s *Store) logger(ctx context.Context) *log.Logger {
	l := log.FromContextOr(ctx, s.log)
	if l == s.log {
		return l
	}
	return l.WithComponent(log.ComponentStore)
}

// Create validates d and appends a new open record.
func (s *Store) Create(ctx context.Context, d core.Draft) (core.Record, error) {
	l := s.logger(ctx)
	if err := d.Validate(); err != nil {
		l.DebugContext(ctx, "Create rejected",
			log.NewFields().WithOperation(log.OpCreate).WithErrorType(log.ErrorTypeValidation).WithError(err).ToSlice()...)
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.freshID(ctx)
	if err != nil {
		return core.Record{}, err
	}
	d.Status = nil
	r := d.Apply(core.Record{ID: id, Status: core.StatusOpen})
	if err := s.repo.Insert(ctx, r); err != nil {
		l.ErrorContext(ctx, "Failed to insert record", log.FieldOperation, log.OpCreate, log.FieldError, err)
		return core.Record{}, fmt.Errorf("insert record: %w", err)
	}

	l.InfoContext(ctx, "Record created",
		log.NewFields().WithOperation(log.OpCreate).
			WithRecord(r.ID, r.Description, r.Amount.String(), r.Status.String()).ToSlice()...)
	return r, nil
}

func (s *Store) freshID(ctx context.Context) (string, error) {
	for i := 0; i < 8; i++ {
		id := s.newID()
		if id == "" {
			continue
		}
		_, exists, err := s.repo.Get(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check id: %w", err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique record id")
}

// Update replaces the mutable fields of record id with d. The status is kept
// unless d.Status is set. An unknown id is a no-op reported as ok=false.
func (s *Store) Update(ctx context.Context, id string, d core.Draft) (core.Record, bool, error) {
	l := s.logger(ctx)
	if err := d.Validate(); err != nil {
		l.DebugContext(ctx, "Update rejected",
			log.NewFields().WithOperation(log.OpUpdate).WithErrorType(log.ErrorTypeValidation).WithError(err).ToSlice()...)
		return core.Record{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Record{}, false, fmt.Errorf("get record: %w", err)
	}
	if !ok {
		l.DebugContext(ctx, "Update ignored, unknown record", log.FieldOperation, log.OpUpdate, log.FieldRecordID, id)
		return core.Record{}, false, nil
	}

	r := d.Apply(cur)
	if _, err := s.repo.Replace(ctx, r); err != nil {
		l.ErrorContext(ctx, "Failed to replace record", log.FieldOperation, log.OpUpdate, log.FieldRecordID, id, log.FieldError, err)
		return core.Record{}, false, fmt.Errorf("replace record: %w", err)
	}

	l.InfoContext(ctx, "Record updated",
		log.NewFields().WithOperation(log.OpUpdate).
			WithRecord(r.ID, r.Description, r.Amount.String(), r.Status.String()).ToSlice()...)
	return r, true, nil
}

// Delete removes record id and drops it from the selection. An unknown id
// is a no-op reported as false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	l := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.repo.Remove(ctx, id)
	if err != nil {
		l.ErrorContext(ctx, "Failed to remove record", log.FieldOperation, log.OpDelete, log.FieldRecordID, id, log.FieldError, err)
		return false, fmt.Errorf("remove record: %w", err)
	}
	s.selected.Remove(id)
	if !ok {
		l.DebugContext(ctx, "Delete ignored, unknown record", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
		return false, nil
	}

	l.InfoContext(ctx, "Record deleted", log.FieldOperation, log.OpDelete, log.FieldRecordID, id)
	return true, nil
}

// ToggleSelect flips selection of id and returns the new membership. Ids
// that do not name a record are never added.
func (s *Store) ToggleSelect(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected.Has(id) {
		s.selected.Remove(id)
		return false, nil
	}
	_, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get record: %w", err)
	}
	if !ok {
		s.logger(ctx).DebugContext(ctx, "Select ignored, unknown record", log.FieldOperation, log.OpSelect, log.FieldRecordID, id)
		return false, nil
	}
	s.selected.Toggle(id)
	return true, nil
}

// ToggleFilter flips visibility of status and returns the new membership.
func (s *Store) ToggleFilter(status core.Status) (bool, error) {
	if err := status.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Toggle(status), nil
}

// BulkSetStatus moves every selected record to status and clears the
// selection. It returns the number of records changed.
func (s *Store) BulkSetStatus(ctx context.Context, status core.Status) (int, error) {
	if err := status.Validate(); err != nil {
		return 0, err
	}
	l := s.logger(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected.Len() == 0 {
		l.DebugContext(ctx, "Bulk status skipped",
			log.NewFields().WithOperation(log.OpBulkStatus).WithErrorType(log.ErrorTypeEmptySelect).WithStatus(status.String()).ToSlice()...)
		return 0, ErrNothingSelected
	}

	n, err := s.repo.SetStatus(ctx, s.selected.Items(), status)
	if err != nil {
		l.ErrorContext(ctx, "Failed to set status", log.FieldOperation, log.OpBulkStatus, log.FieldError, err)
		return 0, fmt.Errorf("set status: %w", err)
	}
	s.selected.Clear()

	l.InfoContext(ctx, "Bulk status applied",
		log.NewFields().WithOperation(log.OpBulkStatus).WithStatus(status.String()).WithCount(n).ToSlice()...)
	return n, nil
}

// Visible returns the records whose status is in the filter, in insertion
// order. It is recomputed on every call.
func (s *Store) Visible(ctx context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return s.project(all), nil
}

func (s *Store) project(all []core.Record) []core.Record {
	out := make([]core.Record, 0, len(all))
	for _, r := range all {
		if s.filter.Has(r.Status) {
			out = append(out, r)
		}
	}
	return out
}

// IsSelected reports whether id is in the selection.
func (s *Store) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected.Has(id)
}

// Filter returns the active statuses in display order.
func (s *Store) Filter() []core.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterList()
}

func (s *Store) filterList() []core.Status {
	var out []core.Status
	for _, st := range core.Statuses() {
		if s.filter.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

// Snapshot returns a consistent copy of the whole state.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.All(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list records: %w", err)
	}
	snap := Snapshot{
		Records: all,
		Visible: s.project(all),
		Filter:  s.filterList(),
	}
	for _, r := range all {
		if s.selected.Has(r.ID) {
			snap.Selected = append(snap.Selected, r.ID)
		}
	}
	return snap, nil
}

// Report summarizes the whole collection per status, ignoring the filter.
func (s *Store) Report(ctx context.Context) (core.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals, err := s.repo.Summarize(ctx)
	if err != nil {
		return core.Report{}, fmt.Errorf("summarize records: %w", err)
	}
	return core.NewReport(totals), nil
}
