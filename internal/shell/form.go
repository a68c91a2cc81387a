package shell

import (
	"context"
	"errors"
	"fmt"

	"registros/internal/core"
)

const (
	cancelWord = ":cancel"
	clearWord  = "-"
)

var errFormCancelled = errors.New("form cancelled")

type formField struct {
	key   string
	label string
	value func(d *core.Draft) *string
}

var formFields = []formField{
	{core.FieldDate, "Date", func(d *core.Draft) *string { return &d.Date }},
	{core.FieldAmount, "Amount", func(d *core.Draft) *string { return &d.Amount }},
	{core.FieldDescription, "Description", func(d *core.Draft) *string { return &d.Description }},
	{"notes", "Notes", func(d *core.Draft) *string { return &d.Notes }},
}

// commitFunc hands a finished draft to the store.
type commitFunc func(ctx context.Context, d core.Draft) error

// runForm prompts every field of d, then commits. Validation errors are
// shown and only the failing fields are asked again until the commit
// succeeds, the user cancels or the input ends.
func (s *Shell) runForm(ctx context.Context, in *lineReader, title string, d core.Draft, commit commitFunc) error {
	fmt.Fprintf(s.out, "%s (Enter keeps, %q clears, %q aborts)\n", title, clearWord, cancelWord)

	fields := formFields
	for {
		if err := s.promptFields(ctx, in, &d, fields); err != nil {
			return err
		}

		err := commit(ctx, d)
		var ve core.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		renderValidation(s.out, ve)
		if fields = failingFields(ve); len(fields) == 0 {
			return err
		}
	}
}

func (s *Shell) promptFields(ctx context.Context, in *lineReader, d *core.Draft, fields []formField) error {
	for _, f := range fields {
		v := f.value(d)
		if *v != "" {
			fmt.Fprintf(s.out, "%s [%s]: ", f.label, *v)
		} else {
			fmt.Fprintf(s.out, "%s: ", f.label)
		}

		line, err := in.next(ctx)
		if err != nil {
			return err
		}
		switch line {
		case cancelWord:
			return errFormCancelled
		case "":
		case clearWord:
			*v = ""
		default:
			*v = line
		}
	}
	return nil
}

func failingFields(ve core.ValidationErrors) []formField {
	var out []formField
	for _, f := range formFields {
		if _, bad := ve[f.key]; bad {
			out = append(out, f)
		}
	}
	return out
}
