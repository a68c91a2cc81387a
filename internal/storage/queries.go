package storage

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Record is the row shape of the records table.
type Record struct {
	Seq         int64
	ID          string
	Date        string
	Amount      decimal.Decimal
	Description string
	Notes       string
	Status      string
}

const insertRecord = `
INSERT INTO records (id, date, amount, description, notes, status)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertRecordParams struct {
	ID          string
	Date        string
	Amount      decimal.Decimal
	Description string
	Notes       string
	Status      string
}

func (q *Queries) InsertRecord(ctx context.Context, arg InsertRecordParams) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		arg.ID,
		arg.Date,
		arg.Amount.String(),
		arg.Description,
		arg.Notes,
		arg.Status,
	)
	return err
}

const getRecord = `
SELECT seq, id, date, amount, description, notes, status
FROM records
WHERE id = ?
`

func (q *Queries) GetRecord(ctx context.Context, id string) (Record, error) {
	row := q.db.QueryRowContext(ctx, getRecord, id)
	var i Record
	err := row.Scan(
		&i.Seq,
		&i.ID,
		&i.Date,
		&i.Amount,
		&i.Description,
		&i.Notes,
		&i.Status,
	)
	return i, err
}

const listRecords = `
SELECT seq, id, date, amount, description, notes, status
FROM records
ORDER BY seq
`

func (q *Queries) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, listRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Record
	for rows.Next() {
		var i Record
		if err := rows.Scan(
			&i.Seq,
			&i.ID,
			&i.Date,
			&i.Amount,
			&i.Description,
			&i.Notes,
			&i.Status,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateRecord = `
UPDATE records
SET date = ?, amount = ?, description = ?, notes = ?, status = ?
WHERE id = ?
`

type UpdateRecordParams struct {
	Date        string
	Amount      decimal.Decimal
	Description string
	Notes       string
	Status      string
	ID          string
}

func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecord,
		arg.Date,
		arg.Amount.String(),
		arg.Description,
		arg.Notes,
		arg.Status,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRecord = `
DELETE FROM records WHERE id = ?
`

func (q *Queries) DeleteRecord(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRecord, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setRecordStatus = `
UPDATE records SET status = ? WHERE id = ?
`

func (q *Queries) SetRecordStatus(ctx context.Context, status, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, setRecordStatus, status, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listStatusAmounts = `
SELECT status, amount
FROM records
ORDER BY seq
`

type StatusAmount struct {
	Status string
	Amount decimal.Decimal
}

func (q *Queries) ListStatusAmounts(ctx context.Context) ([]StatusAmount, error) {
	rows, err := q.db.QueryContext(ctx, listStatusAmounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StatusAmount
	for rows.Next() {
		var i StatusAmount
		if err := rows.Scan(&i.Status, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
