package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/nlsentiment/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FieldRepo persists field storages and per-bundle field definitions.
type FieldRepo struct {
	pool *pgxpool.Pool
}

func NewFieldRepo(pool *pgxpool.Pool) *FieldRepo {
	return &FieldRepo{pool: pool}
}

const fieldColumns = `uuid, entity_type, bundle, field_name, field_type, label, description, settings`

func scanField(row pgx.Row) (domain.FieldDefinition, error) {
	var (
		f    domain.FieldDefinition
		kind string
	)
	err := row.Scan(&f.UUID, &f.EntityType, &f.Bundle, &f.Name, &kind, &f.Label, &f.Description, &f.Settings)
	f.Kind = domain.ParseFieldKind(kind)
	return f, err
}

func (r *FieldRepo) GetField(ctx context.Context, entityType, bundle, name string) (*domain.FieldDefinition, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+fieldColumns+` FROM field_configs WHERE entity_type = $1 AND bundle = $2 AND field_name = $3`,
		entityType, bundle, name)

	f, err := scanField(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFieldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", err)
	}
	return &f, nil
}

func (r *FieldRepo) ListFields(ctx context.Context, entityType, bundle string) ([]domain.FieldDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+fieldColumns+` FROM field_configs WHERE entity_type = $1 AND bundle = $2 ORDER BY field_name`,
		entityType, bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}

	fields, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FieldDefinition, error) {
		return scanField(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan fields: %w", err)
	}
	return fields, nil
}

func (r *FieldRepo) StorageExists(ctx context.Context, entityType, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM field_storage_configs WHERE entity_type = $1 AND field_name = $2)`,
		entityType, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check field storage: %w", err)
	}
	return exists, nil
}

func (r *FieldRepo) CreateStorage(ctx context.Context, storage domain.FieldStorage) error {
	if storage.UUID == uuid.Nil {
		storage.UUID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO field_storage_configs (uuid, entity_type, field_name, field_type, cardinality, translatable, locked, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		storage.UUID, storage.EntityType, storage.Name, storage.Kind.String(),
		storage.Cardinality, storage.Translatable, storage.Locked, nonNilSettings(storage.Settings))
	if err != nil {
		return fmt.Errorf("failed to create field storage %s: %w", storage.ID(), mapConstraintError(err))
	}
	return nil
}

func (r *FieldRepo) CreateField(ctx context.Context, field domain.FieldDefinition) error {
	if field.UUID == uuid.Nil {
		field.UUID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO field_configs (uuid, entity_type, bundle, field_name, field_type, label, description, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		field.UUID, field.EntityType, field.Bundle, field.Name, field.Kind.String(),
		field.Label, field.Description, nonNilSettings(field.Settings))
	if err != nil {
		return fmt.Errorf("failed to create field %s: %w", field.ID(), mapConstraintError(err))
	}
	return nil
}

// DeleteField removes the field and its components from every form display
// of the bundle in one transaction. The field storage is left in place.
func (r *FieldRepo) DeleteField(ctx context.Context, entityType, bundle, name string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM field_configs WHERE entity_type = $1 AND bundle = $2 AND field_name = $3`,
		entityType, bundle, name)
	if err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFieldNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE entity_form_displays SET content = content - $3::text, updated_at = NOW()
		WHERE entity_type = $1 AND bundle = $2 AND content ? $3::text`,
		entityType, bundle, name)
	if err != nil {
		return fmt.Errorf("failed to remove form display component: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return domain.ErrFieldExists
	case pgForeignKeyViolation:
		return domain.ErrFieldStorageMissing
	}
	return err
}

func nonNilSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return map[string]any{}
	}
	return settings
}
