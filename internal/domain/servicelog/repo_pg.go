package servicelog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markknapp83-del/Service-Log-App-sub002/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a PostgreSQL-backed service log repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(db.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repoPG) Create(ctx context.Context, log *ServiceLog) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service_logs (id, client_id, activity_id, service_date, patient_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ID, log.ClientID, log.ActivityID, log.ServiceDate, log.PatientCount, log.CreatedBy, log.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert service log: %w", err)
	}
	return nil
}

func (r *repoPG) CreateEntry(ctx context.Context, entry *PatientEntry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_entries (id, service_log_id, appointment_type, outcome_id)
		VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.ServiceLogID, entry.AppointmentType, entry.OutcomeID)
	if err != nil {
		return fmt.Errorf("insert patient entry: %w", err)
	}
	return nil
}

func (r *repoPG) CreateValues(ctx context.Context, values []FieldValue) error {
	for _, fv := range values {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO patient_entry_values (id, patient_entry_id, field_id, value_kind, choice_id, text_value, number_value, bool_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			fv.ID, fv.PatientEntryID, fv.FieldID, fv.Value.Kind, fv.Value.Choice, fv.Value.Text, fv.Value.Number, fv.Value.Checkbox)
		if err != nil {
			return fmt.Errorf("insert field value: %w", err)
		}
	}
	return nil
}

const logColumns = `id, client_id, activity_id, service_date, patient_count, created_by, created_at`

func scanLog(row pgx.Row) (*ServiceLog, error) {
	var l ServiceLog
	err := row.Scan(&l.ID, &l.ClientID, &l.ActivityID, &l.ServiceDate, &l.PatientCount, &l.CreatedBy, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ServiceLog, error) {
	log, err := scanLog(r.conn(ctx).QueryRow(ctx, `
		SELECT `+logColumns+` FROM service_logs WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get service log: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, service_log_id, appointment_type, outcome_id
		FROM patient_entries
		WHERE service_log_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list patient entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e PatientEntry
		if err := rows.Scan(&e.ID, &e.ServiceLogID, &e.AppointmentType, &e.OutcomeID); err != nil {
			return nil, fmt.Errorf("scan patient entry: %w", err)
		}
		log.Entries = append(log.Entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

func (r *repoPG) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*ServiceLog, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT count(*) FROM service_logs
		WHERE $1::uuid IS NULL OR client_id = $1`, clientID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count service logs: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+logColumns+`
		FROM service_logs
		WHERE $1::uuid IS NULL OR client_id = $1
		ORDER BY service_date DESC, created_at DESC
		LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list service logs: %w", err)
	}
	defer rows.Close()

	var logs []*ServiceLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan service log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *repoPG) ListValues(ctx context.Context, serviceLogID uuid.UUID) ([]FieldValue, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT v.id, v.patient_entry_id, v.field_id, v.value_kind, v.choice_id, v.text_value, v.number_value, v.bool_value
		FROM patient_entry_values v
		JOIN patient_entries e ON e.id = v.patient_entry_id
		WHERE e.service_log_id = $1`, serviceLogID)
	if err != nil {
		return nil, fmt.Errorf("list field values: %w", err)
	}
	defer rows.Close()

	var values []FieldValue
	for rows.Next() {
		var fv FieldValue
		err := rows.Scan(&fv.ID, &fv.PatientEntryID, &fv.FieldID, &fv.Value.Kind, &fv.Value.Choice, &fv.Value.Text, &fv.Value.Number, &fv.Value.Checkbox)
		if err != nil {
			return nil, fmt.Errorf("scan field value: %w", err)
		}
		values = append(values, fv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// Entries and values cascade with the log.
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM service_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
