package taxonomy

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

// tables is the closed Kind-to-table map; SQL below only ever interpolates
// values from it.
var tables = map[Kind]string{
	KindClient:   "clients",
	KindActivity: "activities",
	KindOutcome:  "outcomes",
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a PostgreSQL-backed taxonomy repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func tableFor(kind Kind) (string, error) {
	table, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unknown vocabulary %q", kind)
	}
	return table, nil
}

func scanTerm(row pgx.Row) (*Term, error) {
	var t Term
	err := row.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) List(ctx context.Context, kind Kind, includeInactive bool) ([]*Term, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM `+table+`
		WHERE active OR $1
		ORDER BY name`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var terms []*Term
	for rows.Next() {
		t, err := scanTerm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *repoPG) GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Term, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	t, err := scanTerm(r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM `+table+` WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return t, nil
}

func (r *repoPG) Create(ctx context.Context, kind Kind, term *Term) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO `+table+` (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		term.ID, term.Name, term.Active, term.CreatedAt, term.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (r *repoPG) Update(ctx context.Context, kind Kind, term *Term) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE `+table+` SET name = $2, active = $3, updated_at = $4
		WHERE id = $1`,
		term.ID, term.Name, term.Active, term.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
