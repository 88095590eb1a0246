package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	id "parasol/pkg/domain"
	"parasol/pkg/sentinel"
)

// PostgresStore persists ledger state in PostgreSQL via database/sql.
// Registration order is the policies.position sequence, so List returns the
// same deterministic scan order as the in-memory store.
//
// Amounts are stored as BIGINT; premiums above math.MaxInt64 are rejected at
// the store boundary rather than silently truncated.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed ledger store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS policies (
	identity       TEXT PRIMARY KEY,
	position       BIGSERIAL,
	premium        BIGINT NOT NULL CHECK (premium > 0),
	claim_paid     BOOLEAN NOT NULL DEFAULT FALSE,
	registered_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_state (
	id                     SMALLINT PRIMARY KEY CHECK (id = 1),
	rainfall_threshold     BIGINT NOT NULL,
	temperature_threshold  BIGINT NOT NULL,
	balance                BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
);
`

// Init creates the schema if needed and seeds the singleton state row with
// the initial thresholds. Seeding is idempotent: an existing row wins.
func (s *PostgresStore) Init(ctx context.Context, initial Thresholds) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_state (id, rainfall_threshold, temperature_threshold, balance)
		VALUES (1, $1, $2, 0)
		ON CONFLICT (id) DO NOTHING
	`, int64(initial.Rainfall), int64(initial.Temperature))
	if err != nil {
		return fmt.Errorf("seed ledger state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, policy Policy) error {
	if policy.Premium > math.MaxInt64 {
		return sentinel.ErrInvalidState
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (identity, premium, claim_paid, registered_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO NOTHING
	`, policy.Identity.String(), int64(policy.Premium), policy.ClaimPaid, policy.RegisteredAt)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, identity id.ParticipantID) (Policy, error) {
	var (
		p       Policy
		ident   string
		premium int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT identity, premium, claim_paid, registered_at
		FROM policies
		WHERE identity = $1
	`, identity.String()).Scan(&ident, &premium, &p.ClaimPaid, &p.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Policy{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Policy{}, fmt.Errorf("get policy: %w", err)
	}
	p.Identity = id.ParticipantID(ident)
	p.Premium = uint64(premium)
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identity, premium, claim_paid, registered_at
		FROM policies
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var policies []Policy
	for rows.Next() {
		var (
			p       Policy
			ident   string
			premium int64
		)
		if err := rows.Scan(&ident, &premium, &p.ClaimPaid, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		p.Identity = id.ParticipantID(ident)
		p.Premium = uint64(premium)
		policies = append(policies, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policies: %w", err)
	}
	return policies, nil
}

func (s *PostgresStore) SetClaimPaid(ctx context.Context, identity id.ParticipantID, paid bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE policies SET claim_paid = $2 WHERE identity = $1
	`, identity.String(), paid)
	if err != nil {
		return fmt.Errorf("set claim paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set claim paid: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Thresholds(ctx context.Context) (Thresholds, error) {
	var rainfall, temperature int64
	err := s.db.QueryRowContext(ctx, `
		SELECT rainfall_threshold, temperature_threshold FROM ledger_state WHERE id = 1
	`).Scan(&rainfall, &temperature)
	if errors.Is(err, sql.ErrNoRows) {
		return Thresholds{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Thresholds{}, fmt.Errorf("get thresholds: %w", err)
	}
	return Thresholds{Rainfall: uint64(rainfall), Temperature: uint64(temperature)}, nil
}

func (s *PostgresStore) SetThresholds(ctx context.Context, t Thresholds) error {
	if t.Rainfall > math.MaxInt64 || t.Temperature > math.MaxInt64 {
		return sentinel.ErrInvalidState
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE ledger_state SET rainfall_threshold = $1, temperature_threshold = $2 WHERE id = 1
	`, int64(t.Rainfall), int64(t.Temperature))
	if err != nil {
		return fmt.Errorf("set thresholds: %w", err)
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context) (uint64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `
		SELECT balance FROM ledger_state WHERE id = 1
	`).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return uint64(balance), nil
}

func (s *PostgresStore) CreditFunds(ctx context.Context, amount uint64) error {
	if amount > math.MaxInt64 {
		return sentinel.ErrInvalidState
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE ledger_state SET balance = balance + $1 WHERE id = 1
	`, int64(amount))
	if err != nil {
		return fmt.Errorf("credit funds: %w", err)
	}
	return nil
}

func (s *PostgresStore) DebitFunds(ctx context.Context, amount uint64) error {
	if amount > math.MaxInt64 {
		return sentinel.ErrInvalidState
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE ledger_state SET balance = balance - $1 WHERE id = 1 AND balance >= $1
	`, int64(amount))
	if err != nil {
		return fmt.Errorf("debit funds: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit funds: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}
