// Package repository implements the append-only expense record store.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/owenfield/taxledger/internal/database"
	"github.com/owenfield/taxledger/internal/models"
)

// ErrUnknownRecord indicates an operation on a record id that does not exist.
var ErrUnknownRecord = errors.New("unknown record")

// recordSeqLockKey serializes record id assignment across writers. Ids are
// computed as MAX+1 under this advisory lock so they stay unique, strictly
// increasing, and gapless: an id is only ever consumed by the transaction
// that commits it.
const recordSeqLockKey = 0x7461_786c // "taxl"

// RecordRepository handles expense record database operations.
type RecordRepository struct {
	db database.PGXDB
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(db database.PGXDB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Append stores a classified expense and returns its record id. Records are
// never overwritten; appending the same input/decision pair twice yields two
// distinct records.
func (r *RecordRepository) Append(
	ctx context.Context,
	input models.ExpenseInput,
	decision models.ClassificationDecision,
) (int64, error) {
	if beginner, ok := r.db.(database.TxBeginner); ok {
		tx, err := beginner.Begin(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to begin append transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		id, err := appendIn(ctx, tx, input, decision)
		if err != nil {
			return 0, err
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("failed to commit append: %w", err)
		}
		return id, nil
	}

	// Already inside a caller-managed transaction (tests).
	return appendIn(ctx, r.db, input, decision)
}

func appendIn(
	ctx context.Context,
	db database.PGXDB,
	input models.ExpenseInput,
	decision models.ClassificationDecision,
) (int64, error) {
	if _, err := db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, recordSeqLockKey); err != nil {
		return 0, fmt.Errorf("failed to acquire record sequence lock: %w", err)
	}

	var id int64
	err := db.QueryRow(ctx, `
		INSERT INTO expense_records (record_id, raw_text, source, merchant, amount, submitted_at)
		VALUES ((SELECT COALESCE(MAX(record_id), 0) + 1 FROM expense_records), $1, $2, $3, $4, $5)
		RETURNING record_id
	`, input.RawText, input.Source, input.Merchant, input.Amount, input.SubmittedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append record: %w", err)
	}

	if err := insertDecision(ctx, db, id, decision); err != nil {
		return 0, err
	}

	return id, nil
}

// Correct appends a new current decision for the record while retaining the
// prior decision in history. Decisions are never mutated in place.
func (r *RecordRepository) Correct(
	ctx context.Context,
	recordID int64,
	decision models.ClassificationDecision,
) error {
	if err := r.mustExist(ctx, recordID); err != nil {
		return err
	}
	return insertDecision(ctx, r.db, recordID, decision)
}

func insertDecision(
	ctx context.Context,
	db database.PGXDB,
	recordID int64,
	decision models.ClassificationDecision,
) error {
	_, err := db.Exec(ctx, `
		INSERT INTO classification_decisions (record_id, category, justification, confidence, decided_at, model_version)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, recordID, decision.Category, decision.Justification, decision.Confidence,
		decision.DecidedAt, decision.ModelVersion)
	if err != nil {
		return fmt.Errorf("failed to store decision: %w", err)
	}
	return nil
}

// currentRecordQuery joins each record with its latest decision.
const currentRecordQuery = `
	SELECT r.record_id, r.raw_text, r.source, r.merchant, r.amount, r.submitted_at, r.created_at,
	       d.category, d.justification, d.confidence, d.decided_at, d.model_version
	FROM expense_records r
	JOIN LATERAL (
		SELECT category, justification, confidence, decided_at, model_version
		FROM classification_decisions
		WHERE record_id = r.record_id
		ORDER BY id DESC
		LIMIT 1
	) d ON true`

// ListAll returns every record with its current decision, in insertion order.
// Each call issues a fresh query, so the result is a call-time snapshot:
// records appended later never corrupt a traversal already handed out.
func (r *RecordRepository) ListAll(ctx context.Context) ([]models.ExpenseRecord, error) {
	rows, err := r.db.Query(ctx, currentRecordQuery+`
	ORDER BY r.record_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetByID retrieves one record with its current decision.
func (r *RecordRepository) GetByID(ctx context.Context, recordID int64) (*models.ExpenseRecord, error) {
	rows, err := r.db.Query(ctx, currentRecordQuery+`
	WHERE r.record_id = $1`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRecord, recordID)
	}
	return &records[0], nil
}

// Search returns records whose merchant or current category matches the
// query, case-insensitively, in insertion order.
func (r *RecordRepository) Search(ctx context.Context, query string) ([]models.ExpenseRecord, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, currentRecordQuery+`
	WHERE r.merchant ILIKE $1 OR d.category ILIKE $1
	ORDER BY r.record_id`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// History returns every decision ever made for the record, oldest first.
func (r *RecordRepository) History(ctx context.Context, recordID int64) ([]models.ClassificationDecision, error) {
	if err := r.mustExist(ctx, recordID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT category, justification, confidence, decided_at, model_version
		FROM classification_decisions
		WHERE record_id = $1
		ORDER BY id ASC
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision history: %w", err)
	}
	defer rows.Close()

	var decisions []models.ClassificationDecision
	for rows.Next() {
		var d models.ClassificationDecision
		if err := rows.Scan(&d.Category, &d.Justification, &d.Confidence, &d.DecidedAt, &d.ModelVersion); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decision history rows error: %w", err)
	}

	return decisions, nil
}

func (r *RecordRepository) mustExist(ctx context.Context, recordID int64) error {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM expense_records WHERE record_id = $1`, recordID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrUnknownRecord, recordID)
	}
	if err != nil {
		return fmt.Errorf("failed to check record existence: %w", err)
	}
	return nil
}

func scanRecords(rows pgx.Rows) ([]models.ExpenseRecord, error) {
	var records []models.ExpenseRecord
	for rows.Next() {
		var rec models.ExpenseRecord
		err := rows.Scan(
			&rec.RecordID,
			&rec.Input.RawText,
			&rec.Input.Source,
			&rec.Input.Merchant,
			&rec.Input.Amount,
			&rec.Input.SubmittedAt,
			&rec.CreatedAt,
			&rec.Decision.Category,
			&rec.Decision.Justification,
			&rec.Decision.Confidence,
			&rec.Decision.DecidedAt,
			&rec.Decision.ModelVersion,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record rows error: %w", err)
	}
	return records, nil
}
