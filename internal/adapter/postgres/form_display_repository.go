package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/nlsentiment/internal/domain"
)

// FormDisplayRepo persists entity form displays. Components are stored as a
// JSONB object keyed by field name.
type FormDisplayRepo struct {
	pool *pgxpool.Pool
}

func NewFormDisplayRepo(pool *pgxpool.Pool) *FormDisplayRepo {
	return &FormDisplayRepo{pool: pool}
}

func (r *FormDisplayRepo) GetComponents(ctx context.Context, entityType, bundle, mode string) (map[string]domain.FormDisplayComponent, error) {
	var content []byte
	err := r.pool.QueryRow(ctx,
		`SELECT content FROM entity_form_displays WHERE entity_type = $1 AND bundle = $2 AND form_mode = $3`,
		entityType, bundle, mode).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]domain.FormDisplayComponent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get form display: %w", err)
	}

	components := map[string]domain.FormDisplayComponent{}
	if err := json.Unmarshal(content, &components); err != nil {
		return nil, fmt.Errorf("failed to decode form display: %w", err)
	}
	return components, nil
}

// SetComponent places a component on the form display, creating the display
// when the bundle has none yet.
func (r *FormDisplayRepo) SetComponent(ctx context.Context, entityType, bundle, mode, fieldName string, component domain.FormDisplayComponent) error {
	if component.Settings == nil {
		component.Settings = map[string]any{}
	}
	if component.ThirdPartySettings == nil {
		component.ThirdPartySettings = map[string]any{}
	}
	data, err := json.Marshal(component)
	if err != nil {
		return fmt.Errorf("failed to encode form display component: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO entity_form_displays (entity_type, bundle, form_mode, content)
		VALUES ($1, $2, $3, jsonb_build_object($4::text, $5::jsonb))
		ON CONFLICT (entity_type, bundle, form_mode)
		DO UPDATE SET content = entity_form_displays.content || EXCLUDED.content, updated_at = NOW()`,
		entityType, bundle, mode, fieldName, string(data))
	if err != nil {
		return fmt.Errorf("failed to set form display component: %w", err)
	}
	return nil
}
