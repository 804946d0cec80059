package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/share-engine/internal/config"
	"github.com/medibook/share-engine/internal/schedule"
	"github.com/medibook/share-engine/internal/status"
	"github.com/medibook/share-engine/pkg/logger"
)

const (
	defaultMaxConns        = 10
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
)

// ErrNotFound signals that the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the local Postgres database.
type Store struct {
	pool *pgxpool.Pool
}

var _ status.Recorder = (*Store)(nil)

// New creates a connection pool from the provided configuration and verifies
// connectivity.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("database host is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("database port is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("database user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}

	connString, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid connection max lifetime: %w", err)
		}
		poolCfg.MaxConnLifetime = lifetime
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Database connection established: %s@%s:%d/%s",
		cfg.User, cfg.Host, cfg.Port, cfg.Database)

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		logger.Info("Closing database connection pool")
		s.pool.Close()
	}
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("database connection pool is nil")
	}
	return s.pool.Ping(ctx)
}

// GetPatient returns the patient with the given ID.
func (s *Store) GetPatient(ctx context.Context, id string) (*Patient, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, given_name, family_name, date_of_birth, medical_record_number,
		       allergies, notes, created_at, updated_at
		FROM patients WHERE id = $1`, id)

	var p Patient
	err := row.Scan(&p.ID, &p.GivenName, &p.FamilyName, &p.DateOfBirth, &p.MedicalRecordNumber,
		&p.Allergies, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("patient %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query patient %s: %w", id, err)
	}
	return &p, nil
}

// SavePatient inserts or updates a patient.
func (s *Store) SavePatient(ctx context.Context, p *Patient) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO patients (id, given_name, family_name, date_of_birth, medical_record_number,
		                      allergies, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			given_name = EXCLUDED.given_name,
			family_name = EXCLUDED.family_name,
			date_of_birth = EXCLUDED.date_of_birth,
			medical_record_number = EXCLUDED.medical_record_number,
			allergies = EXCLUDED.allergies,
			notes = EXCLUDED.notes,
			updated_at = now()`,
		p.ID, p.GivenName, p.FamilyName, p.DateOfBirth, p.MedicalRecordNumber, p.Allergies, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to save patient %s: %w", p.ID, err)
	}
	return nil
}

// ListDispensations returns a patient's dispensation history ordered by event
// time descending.
func (s *Store) ListDispensations(ctx context.Context, patientID string) ([]Dispensation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, patient_id, medication_name, strength, quantity, frequency,
		       directions, prescriber_name, pharmacy_name, dispensed_at, next_due_at, created_at
		FROM dispensations
		WHERE patient_id = $1
		ORDER BY dispensed_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispensations for patient %s: %w", patientID, err)
	}
	defer rows.Close()

	var dispensations []Dispensation
	for rows.Next() {
		var d Dispensation
		var frequency string
		err := rows.Scan(&d.ID, &d.PatientID, &d.MedicationName, &d.Strength, &d.Quantity,
			&frequency, &d.Directions, &d.PrescriberName, &d.PharmacyName,
			&d.DispensedAt, &d.NextDueAt, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dispensation row: %w", err)
		}
		d.Frequency = schedule.FrequencyPolicy(frequency)
		dispensations = append(dispensations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dispensation rows: %w", err)
	}

	return dispensations, nil
}

// RecordDispensation finalizes a dispensing event. The next-due timestamp is
// computed and persisted with the dispensation, and the patient row is
// touched, all in one transaction with rollback on partial failure. The
// computed schedule is durable before any label rendering reads it.
func (s *Store) RecordDispensation(ctx context.Context, d *Dispensation) (schedule.Result, error) {
	result := schedule.NextDue(schedule.DispenseEvent{
		Quantity:    d.Quantity,
		Policy:      d.Frequency,
		DispensedAt: d.DispensedAt,
	})
	if result.Fallback {
		logger.Warnf("Dispensation %s carries unrecognized frequency %q, daily schedule applied",
			d.ID, d.Frequency)
	}
	nextDue := result.NextDue
	d.NextDueAt = &nextDue

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO dispensations (id, patient_id, medication_name, strength, quantity,
			                           frequency, directions, prescriber_name, pharmacy_name,
			                           dispensed_at, next_due_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`,
			d.ID, d.PatientID, d.MedicationName, d.Strength, d.Quantity,
			string(d.Frequency), d.Directions, d.PrescriberName, d.PharmacyName,
			d.DispensedAt, d.NextDueAt)
		if err != nil {
			return fmt.Errorf("failed to insert dispensation %s: %w", d.ID, err)
		}

		tag, err := tx.Exec(ctx, `UPDATE patients SET updated_at = now() WHERE id = $1`, d.PatientID)
		if err != nil {
			return fmt.Errorf("failed to touch patient %s: %w", d.PatientID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("patient %s: %w", d.PatientID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return schedule.Result{}, err
	}

	return result, nil
}

// SetPublishStatus stores the publish status for a root record.
func (s *Store) SetPublishStatus(ctx context.Context, rootID string, st *status.PublishStatus) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO publish_status (root_id, phase, message, last_attempt, attempt_count,
		                            last_publish_time, grant_id, record_count, graph_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (root_id) DO UPDATE SET
			phase = EXCLUDED.phase,
			message = EXCLUDED.message,
			last_attempt = EXCLUDED.last_attempt,
			attempt_count = EXCLUDED.attempt_count,
			last_publish_time = EXCLUDED.last_publish_time,
			grant_id = EXCLUDED.grant_id,
			record_count = EXCLUDED.record_count,
			graph_hash = EXCLUDED.graph_hash,
			updated_at = now()`,
		rootID, string(st.Phase), st.Message, st.LastAttempt, st.AttemptCount,
		st.LastPublishTime, st.GrantID, st.RecordCount, st.GraphHash)
	if err != nil {
		return fmt.Errorf("failed to save publish status for %s: %w", rootID, err)
	}
	return nil
}

// GetPublishStatus returns the publish status for a root record, or nil when
// none has been recorded.
func (s *Store) GetPublishStatus(ctx context.Context, rootID string) (*status.PublishStatus, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT phase, message, last_attempt, attempt_count, last_publish_time, grant_id, record_count, graph_hash
		FROM publish_status WHERE root_id = $1`, rootID)

	var st status.PublishStatus
	var phase string
	err := row.Scan(&phase, &st.Message, &st.LastAttempt, &st.AttemptCount,
		&st.LastPublishTime, &st.GrantID, &st.RecordCount, &st.GraphHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query publish status for %s: %w", rootID, err)
	}
	st.Phase = status.PublishPhase(phase)
	return &st, nil
}
