package fieldschema

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

// NewRepoPG creates a PostgreSQL-backed field definition repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const fieldColumns = `id, label, field_type, display_order, required, active, client_id, created_at, updated_at`

func scanField(row pgx.Row) (*FieldDefinition, error) {
	var f FieldDefinition
	err := row.Scan(&f.ID, &f.Label, &f.Type, &f.DisplayOrder, &f.Required, &f.Active, &f.ClientID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repoPG) ListActive(ctx context.Context, clientID *uuid.UUID) ([]*FieldDefinition, error) {
	// An unknown client id simply matches no scoped rows, so resolution
	// degrades to global-only instead of failing.
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+fieldColumns+`
		FROM custom_fields
		WHERE active AND (client_id IS NULL OR client_id = $1)
		ORDER BY display_order, created_at, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list active fields: %w", err)
	}
	defer rows.Close()

	fields, err := collectFields(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachChoices(ctx, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *repoPG) ListAll(ctx context.Context) ([]*FieldDefinition, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+fieldColumns+`
		FROM custom_fields
		ORDER BY display_order, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	fields, err := collectFields(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachChoices(ctx, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func collectFields(rows pgx.Rows) ([]*FieldDefinition, error) {
	var fields []*FieldDefinition
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *repoPG) attachChoices(ctx context.Context, fields []*FieldDefinition) error {
	byID := make(map[uuid.UUID]*FieldDefinition, len(fields))
	ids := make([]uuid.UUID, 0, len(fields))
	for _, f := range fields {
		if f.Type == TypeDropdown {
			byID[f.ID] = f
			ids = append(ids, f.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, field_id, choice_text, display_order
		FROM custom_field_choices
		WHERE field_id = ANY($1)
		ORDER BY field_id, display_order, created_at`, ids)
	if err != nil {
		return fmt.Errorf("list choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.FieldID, &c.Text, &c.DisplayOrder); err != nil {
			return fmt.Errorf("scan choice: %w", err)
		}
		if f, ok := byID[c.FieldID]; ok {
			f.Choices = append(f.Choices, c)
		}
	}
	return rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*FieldDefinition, error) {
	f, err := scanField(r.conn(ctx).QueryRow(ctx, `
		SELECT `+fieldColumns+`
		FROM custom_fields WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get field: %w", err)
	}
	if f.Type == TypeDropdown {
		choices, err := r.ListChoices(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		f.Choices = choices
	}
	return f, nil
}

func (r *repoPG) Create(ctx context.Context, def *FieldDefinition) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO custom_fields (id, label, field_type, display_order, required, active, client_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		def.ID, def.Label, def.Type, def.DisplayOrder, def.Required, def.Active, def.ClientID,
	)
	if err != nil {
		return fmt.Errorf("create field: %w", err)
	}
	if len(def.Choices) > 0 {
		return r.ReplaceChoices(ctx, def.ID, def.Choices)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, def *FieldDefinition) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE custom_fields
		SET label = $2, display_order = $3, required = $4, active = $5, updated_at = NOW()
		WHERE id = $1`,
		def.ID, def.Label, def.DisplayOrder, def.Required, def.Active,
	)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM custom_field_choices WHERE field_id = $1`, id); err != nil {
		return fmt.Errorf("delete choices: %w", err)
	}
	if _, err := conn.Exec(ctx, `DELETE FROM custom_fields WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return nil
}

func (r *repoPG) ReplaceChoices(ctx context.Context, fieldID uuid.UUID, choices []Choice) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM custom_field_choices WHERE field_id = $1`, fieldID); err != nil {
		return fmt.Errorf("clear choices: %w", err)
	}
	for _, c := range choices {
		if _, err := conn.Exec(ctx, `
			INSERT INTO custom_field_choices (id, field_id, choice_text, display_order)
			VALUES ($1,$2,$3,$4)`,
			c.ID, fieldID, c.Text, c.DisplayOrder,
		); err != nil {
			return fmt.Errorf("insert choice: %w", err)
		}
	}
	return nil
}

func (r *repoPG) ListChoices(ctx context.Context, fieldID uuid.UUID) ([]Choice, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, field_id, choice_text, display_order
		FROM custom_field_choices
		WHERE field_id = $1
		ORDER BY display_order, created_at`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("list choices: %w", err)
	}
	defer rows.Close()

	var choices []Choice
	for rows.Next() {
		var c Choice
		if err := rows.Scan(&c.ID, &c.FieldID, &c.Text, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

func (r *repoPG) HasValues(ctx context.Context, fieldID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient_entry_values WHERE field_id = $1)`, fieldID).
		Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check field values: %w", err)
	}
	return exists, nil
}
