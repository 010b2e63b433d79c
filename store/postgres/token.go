package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

const tokenColumns = `
	id, number, patient_id, patient_name, patient_phone,
	priority_class, category, status, symptoms,
	rank, estimated_wait, sequence, created_by,
	created_at, updated_at`

// ApplyBatch persists one queue mutation inside a single transaction:
// the primary row is upserted and every rank shift is applied, or the
// whole batch rolls back.
func (s *Store) ApplyBatch(ctx context.Context, b *token.Batch) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("admitq/postgres: begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if b.Primary != nil {
		t := b.Primary
		_, err = tx.Exec(ctx, `
			INSERT INTO admitq_tokens (
				id, number, patient_id, patient_name, patient_phone,
				priority_class, category, status, symptoms,
				rank, estimated_wait, sequence, created_by,
				created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5,
				$6, $7, $8, $9,
				$10, $11, $12, $13,
				$14, $15
			)
			ON CONFLICT (id) DO UPDATE SET
				priority_class = EXCLUDED.priority_class,
				status         = EXCLUDED.status,
				rank           = EXCLUDED.rank,
				estimated_wait = EXCLUDED.estimated_wait,
				updated_at     = EXCLUDED.updated_at`,
			t.ID.String(), t.Number, t.PatientID, t.PatientName, t.PatientPhone,
			int(t.Class), t.Category, string(t.Status), t.Symptoms,
			t.Rank, t.EstimatedWait, int64(t.Sequence), t.CreatedBy,
			t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			if isDuplicateKey(err) {
				// Partial unique index on (patient_id) WHERE status = 'active'.
				return admitq.ErrDuplicateActive
			}
			return fmt.Errorf("admitq/postgres: write token: %w", err)
		}
	}

	for _, shift := range b.Shifts {
		tag, execErr := tx.Exec(ctx, `
			UPDATE admitq_tokens
			SET rank = $2, estimated_wait = $3, updated_at = NOW()
			WHERE id = $1`,
			shift.ID.String(), shift.Rank, shift.EstimatedWait,
		)
		if execErr != nil {
			return fmt.Errorf("admitq/postgres: shift rank: %w", execErr)
		}
		if tag.RowsAffected() == 0 {
			return admitq.ErrTokenNotFound
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("admitq/postgres: commit batch: %w", err)
	}
	return nil
}

// GetToken retrieves a token by ID.
func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM admitq_tokens WHERE id = $1`,
		tokenID.String(),
	)
	t, err := scanToken(row)
	if err != nil {
		if isNoRows(err) {
			return nil, admitq.ErrTokenNotFound
		}
		return nil, fmt.Errorf("admitq/postgres: get token: %w", err)
	}
	return t, nil
}

// FindActiveByPatient returns the patient's active token, if any.
func (s *Store) FindActiveByPatient(ctx context.Context, patientID string) (*token.Token, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM admitq_tokens
		 WHERE patient_id = $1 AND status = 'active'`,
		patientID,
	)
	t, err := scanToken(row)
	if err != nil {
		if isNoRows(err) {
			return nil, admitq.ErrTokenNotFound
		}
		return nil, fmt.Errorf("admitq/postgres: find active token: %w", err)
	}
	return t, nil
}

// ListTokens returns tokens matching opts. Active-only listings come back
// in rank order; everything else in admission order.
func (s *Store) ListTokens(ctx context.Context, opts token.ListOpts) ([]*token.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM admitq_tokens WHERE 1=1`
	args := []any{}

	if opts.Status != "" {
		args = append(args, string(opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if opts.PatientID != "" {
		args = append(args, opts.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}

	if opts.Status == token.StatusActive {
		query += " ORDER BY rank ASC"
	} else {
		query += " ORDER BY created_at ASC"
	}

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("admitq/postgres: list tokens: %w", err)
	}
	defer rows.Close()

	return collectTokens(rows)
}

// MaxSequence returns the highest admission sequence ever assigned.
func (s *Store) MaxSequence(ctx context.Context) (uint64, error) {
	var max int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM admitq_tokens`,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("admitq/postgres: max sequence: %w", err)
	}
	return uint64(max), nil
}

// scanToken scans a single token row.
func scanToken(row pgx.Row) (*token.Token, error) {
	var (
		t      token.Token
		idStr  string
		class  int
		status string
		seq    int64
	)
	err := row.Scan(
		&idStr, &t.Number, &t.PatientID, &t.PatientName, &t.PatientPhone,
		&class, &t.Category, &status, &t.Symptoms,
		&t.Rank, &t.EstimatedWait, &seq, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, parseErr := id.ParseTokenID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("admitq/postgres: parse token id %q: %w", idStr, parseErr)
	}
	t.ID = parsedID
	t.Class = token.PriorityClass(class)
	t.Status = token.Status(status)
	t.Sequence = uint64(seq)

	return &t, nil
}

// collectTokens scans all rows into a slice.
func collectTokens(rows pgx.Rows) ([]*token.Token, error) {
	var tokens []*token.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("admitq/postgres: scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("admitq/postgres: iterate tokens: %w", err)
	}
	return tokens, nil
}
