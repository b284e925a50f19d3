package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pscheid92/nlsentiment/internal/domain"
)

// SentimentFieldProvisioner implements domain.FieldProvisioner on top of the
// field and form display stores.
type SentimentFieldProvisioner struct {
	fields   domain.FieldStore
	displays domain.FormDisplayStore
}

func NewSentimentFieldProvisioner(fields domain.FieldStore, displays domain.FormDisplayStore) *SentimentFieldProvisioner {
	return &SentimentFieldProvisioner{fields: fields, displays: displays}
}

func (p *SentimentFieldProvisioner) HasProvisionedField(ctx context.Context, contentType string) (bool, error) {
	_, err := p.fields.GetField(ctx, domain.EntityTypeNode, contentType, domain.SentimentFieldName)
	if errors.Is(err, domain.ErrFieldNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up sentiment field: %w", err)
	}
	return true, nil
}

// CreateProvisionedField attaches the score field to the content type. The
// shared storage is created first if no content type has used it yet; it is
// never removed afterwards.
func (p *SentimentFieldProvisioner) CreateProvisionedField(ctx context.Context, contentType string) error {
	exists, err := p.fields.StorageExists(ctx, domain.EntityTypeNode, domain.SentimentFieldName)
	if err != nil {
		return fmt.Errorf("failed to check field storage: %w", err)
	}

	if !exists {
		if err := p.fields.CreateStorage(ctx, domain.SentimentFieldStorage()); err != nil {
			return fmt.Errorf("failed to create field storage: %w", err)
		}
		slog.InfoContext(ctx, "Sentiment field storage created", "field", domain.SentimentFieldName)
	}

	if err := p.fields.CreateField(ctx, domain.SentimentField(contentType)); err != nil {
		return fmt.Errorf("failed to create field: %w", err)
	}

	slog.InfoContext(ctx, "Sentiment field created", "content_type", contentType)
	return nil
}

// DeleteProvisionedField removes the score field and all of its data.
func (p *SentimentFieldProvisioner) DeleteProvisionedField(ctx context.Context, contentType string) error {
	if err := p.fields.DeleteField(ctx, domain.EntityTypeNode, contentType, domain.SentimentFieldName); err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}

	slog.InfoContext(ctx, "Sentiment field deleted", "content_type", contentType)
	return nil
}

func (p *SentimentFieldProvisioner) AttachToDefaultFormDisplay(ctx context.Context, contentType string) error {
	err := p.displays.SetComponent(ctx, domain.EntityTypeNode, contentType, domain.DefaultFormMode,
		domain.SentimentFieldName, domain.SentimentFormComponent())
	if err != nil {
		return fmt.Errorf("failed to update form display: %w", err)
	}
	return nil
}
