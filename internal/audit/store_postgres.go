package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore appends audit events to the calculation_audit table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the audit table when it is missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS calculation_audit (
			id              UUID PRIMARY KEY,
			timestamp       TIMESTAMPTZ NOT NULL,
			request_id      TEXT NOT NULL DEFAULT '',
			action          TEXT NOT NULL,
			mutation_count  INTEGER NOT NULL,
			applied_count   INTEGER NOT NULL,
			dossier_ids     JSONB NOT NULL DEFAULT '[]',
			error_code      TEXT NOT NULL DEFAULT '',
			failed_mutation TEXT NOT NULL DEFAULT '',
			duration_ns     BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate calculation_audit: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS calculation_audit_request_id_idx ON calculation_audit (request_id)`)
	if err != nil {
		return fmt.Errorf("migrate calculation_audit index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	dossiers := event.DossierIDs
	if dossiers == nil {
		dossiers = []string{}
	}
	dossierJSON, err := json.Marshal(dossiers)
	if err != nil {
		return fmt.Errorf("encode dossier ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculation_audit (
			id, timestamp, request_id, action, mutation_count, applied_count,
			dossier_ids, error_code, failed_mutation, duration_ns
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.New(),
		event.Timestamp,
		event.RequestID,
		string(event.Action),
		event.MutationCount,
		event.AppliedCount,
		dossierJSON,
		event.ErrorCode,
		event.FailedMutation,
		event.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRequest returns the events recorded for a request id, oldest first.
func (s *PostgresStore) ListByRequest(ctx context.Context, requestID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, request_id, action, mutation_count, applied_count,
		       dossier_ids, error_code, failed_mutation, duration_ns
		FROM calculation_audit
		WHERE request_id = $1
		ORDER BY timestamp ASC
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			action      string
			dossierJSON []byte
			durationNs  int64
		)
		if err := rows.Scan(
			&event.Timestamp,
			&event.RequestID,
			&action,
			&event.MutationCount,
			&event.AppliedCount,
			&dossierJSON,
			&event.ErrorCode,
			&event.FailedMutation,
			&durationNs,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := json.Unmarshal(dossierJSON, &event.DossierIDs); err != nil {
			return nil, fmt.Errorf("decode dossier ids: %w", err)
		}
		event.Action = Action(action)
		event.Duration = time.Duration(durationNs)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
