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

// SettingsRepo stores the sentiment settings as one JSONB row of the config table.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM config WHERE name = $1`, domain.SettingsName).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if settings.ContentTypes == nil {
		settings.ContentTypes = map[string][]string{}
	}
	return &settings, nil
}

func (r *SettingsRepo) Save(ctx context.Context, settings domain.Settings) error {
	if settings.ContentTypes == nil {
		settings.ContentTypes = map[string][]string{}
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO config (name, data) VALUES ($1, $2::jsonb)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		domain.SettingsName, string(data))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
