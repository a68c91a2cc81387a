package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusOpen      Status = "open"
	StatusSubmitted Status = "submitted"
	StatusClosed    Status = "closed"
)

// Field keys used in ValidationErrors.
const (
	FieldDate        = "date"
	FieldAmount      = "amount"
	FieldDescription = "description"
	FieldStatus      = "status"
)

type (
	Status string

	// Record is a single expense entry.
	Record struct {
		ID          string
		Date        string // free-form, kept as typed
		Amount      decimal.Decimal
		Description string
		Notes       string
		Status      Status
	}

	// Draft carries form input for create and edit. Amount is the raw text
	// as typed; Status is only applied on edit when set.
	Draft struct {
		Date        string
		Amount      string
		Description string
		Notes       string
		Status      *Status
	}

	// ValidationErrors maps a field key to a human readable message.
	ValidationErrors map[string]string
)

var (
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyDate        = errors.New("empty date")
	ErrEmptyAmount      = errors.New("empty amount")
	ErrEmptyDescription = errors.New("empty description")
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusSubmitted, StatusClosed}
}

func (s Status) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusSubmitted, StatusClosed:
		return true
	default:
		return false
	}
}

func (s Status) Validate() error {
	if !s.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return nil
}

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Validate checks the required fields and reports every missing one.
// It returns nil when the draft can be committed.
func (d Draft) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(d.Date) == "" {
		errs[FieldDate] = "date is required"
	}
	if strings.TrimSpace(d.Amount) == "" {
		errs[FieldAmount] = "amount is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		errs[FieldDescription] = "description is required"
	}
	if d.Status != nil && !d.Status.IsValid() {
		errs[FieldStatus] = fmt.Sprintf("invalid status %q", string(*d.Status))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Apply copies the draft's mutable fields onto r. ID is never touched and
// Status only when the draft carries one.
func (d Draft) Apply(r Record) Record {
	r.Date = d.Date
	r.Amount = ParseAmount(d.Amount)
	r.Description = d.Description
	r.Notes = d.Notes
	if d.Status != nil {
		r.Status = *d.Status
	}
	return r
}

// DraftFromRecord prefills a form with the current values of r.
func DraftFromRecord(r Record) Draft {
	return Draft{
		Date:        r.Date,
		Amount:      r.Amount.String(),
		Description: r.Description,
		Notes:       r.Notes,
	}
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("empty id")
	}
	if strings.TrimSpace(r.Date) == "" {
		return ErrEmptyDate
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrEmptyDescription
	}
	return r.Status.Validate()
}

func (v ValidationErrors) Error() string {
	fields := v.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field keys in a stable order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Is lets errors.Is match the per-field sentinels.
func (v ValidationErrors) Is(target error) bool {
	switch target {
	case ErrEmptyDate:
		_, ok := v[FieldDate]
		return ok
	case ErrEmptyAmount:
		_, ok := v[FieldAmount]
		return ok
	case ErrEmptyDescription:
		_, ok := v[FieldDescription]
		return ok
	case ErrInvalidStatus:
		_, ok := v[FieldStatus]
		return ok
	}
	return false
}
