package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/nlsentiment/internal/domain"
)

type ContentTypeRepo struct {
	pool *pgxpool.Pool
}

func NewContentTypeRepo(pool *pgxpool.Pool) *ContentTypeRepo {
	return &ContentTypeRepo{pool: pool}
}

func (r *ContentTypeRepo) List(ctx context.Context) ([]domain.ContentType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, label FROM node_types ORDER BY weight, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	contentTypes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ContentType, error) {
		var ct domain.ContentType
		err := row.Scan(&ct.ID, &ct.Label)
		return ct, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan content types: %w", err)
	}
	return contentTypes, nil
}

func (r *ContentTypeRepo) Get(ctx context.Context, id string) (*domain.ContentType, error) {
	var ct domain.ContentType
	err := r.pool.QueryRow(ctx, `SELECT id, label FROM node_types WHERE id = $1`, id).Scan(&ct.ID, &ct.Label)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrContentTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content type: %w", err)
	}
	return &ct, nil
}
