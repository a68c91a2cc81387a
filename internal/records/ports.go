package records

import (
	"context"

	"registros/internal/core"
)

// Ports for the record collection. The Store owns selection and filter
// state; a Repository only keeps the records themselves.
type (
	RecordWriter interface {
		// Insert appends r at the end of the collection.
		Insert(ctx context.Context, r core.Record) error
		// Replace overwrites the record with r.ID. It reports false when no
		// such record exists.
		Replace(ctx context.Context, r core.Record) (bool, error)
		// Remove deletes the record with id. It reports false when no such
		// record exists.
		Remove(ctx context.Context, id string) (bool, error)
		// SetStatus moves every listed record to status and returns how many
		// records were changed. Unknown ids are skipped.
		SetStatus(ctx context.Context, ids []string, status core.Status) (int, error)
	}

	RecordReader interface {
		Get(ctx context.Context, id string) (core.Record, bool, error)
		// All returns every record in insertion order.
		All(ctx context.Context) ([]core.Record, error)
	}

	// Summarizer aggregates records per status.
	Summarizer interface {
		Summarize(ctx context.Context) ([]core.StatusTotal, error)
	}

	Repository interface {
		RecordWriter
		RecordReader
		Summarizer
	}
)
