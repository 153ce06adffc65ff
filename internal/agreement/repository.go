package agreement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists agreements.
type Repository interface {
	Create(ctx context.Context, a Agreement) (Agreement, error)
	// ListForProfile returns agreements where the profile is depositor or
	// beneficiary, newest first.
	ListForProfile(ctx context.Context, profileID string) ([]Agreement, error)
}

// PostgresRepository stores agreements in PostgreSQL. Amounts and tasks are
// jsonb columns.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const agreementColumns = `id, depositor_profile_id, beneficiary_profile_id, document_name, amounts, tasks, status, created_at`

func (r *PostgresRepository) Create(ctx context.Context, a Agreement) (Agreement, error) {
	depositor, err := uuid.Parse(a.DepositorProfileID)
	if err != nil {
		return Agreement{}, err
	}
	beneficiary, err := uuid.Parse(a.BeneficiaryProfileID)
	if err != nil {
		return Agreement{}, err
	}
	amounts, err := json.Marshal(a.Amounts)
	if err != nil {
		return Agreement{}, fmt.Errorf("marshal amounts: %w", err)
	}
	tasks, err := json.Marshal(a.Tasks)
	if err != nil {
		return Agreement{}, fmt.Errorf("marshal tasks: %w", err)
	}
	row := r.db.QueryRow(ctx, `INSERT INTO agreements (depositor_profile_id, beneficiary_profile_id, document_name, amounts, tasks, status)
        VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6)
        RETURNING `+agreementColumns,
		depositor, beneficiary, a.DocumentName, string(amounts), string(tasks), string(a.Status))
	return scanAgreement(row)
}

func (r *PostgresRepository) ListForProfile(ctx context.Context, profileID string) ([]Agreement, error) {
	id, err := uuid.Parse(profileID)
	if err != nil {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+agreementColumns+` FROM agreements
        WHERE depositor_profile_id = $1 OR beneficiary_profile_id = $1
        ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAgreement(row pgx.Row) (Agreement, error) {
	var (
		a                          Agreement
		id, depositor, beneficiary uuid.UUID
		amounts, tasks             []byte
		status                     string
		createdAt                  time.Time
	)
	if err := row.Scan(&id, &depositor, &beneficiary, &a.DocumentName, &amounts, &tasks, &status, &createdAt); err != nil {
		return Agreement{}, err
	}
	if err := json.Unmarshal(amounts, &a.Amounts); err != nil {
		return Agreement{}, fmt.Errorf("decode amounts: %w", err)
	}
	if err := json.Unmarshal(tasks, &a.Tasks); err != nil {
		return Agreement{}, fmt.Errorf("decode tasks: %w", err)
	}
	a.ID = id.String()
	a.DepositorProfileID = depositor.String()
	a.BeneficiaryProfileID = beneficiary.String()
	a.Status = Status(status)
	a.CreatedAt = createdAt.UTC()
	return a, nil
}
