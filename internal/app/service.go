package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/pscheid92/nlsentiment/internal/domain"
)

// ThresholdStep is the granularity accepted for the magnitude threshold.
const ThresholdStep = 0.5

// ValidationError reports malformed administrator input. It is raised before
// any side effect happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldOption is a text field that may be selected for analysis.
type FieldOption struct {
	Name  string
	Label string
}

// ContentTypeForm is the settings form state for one content type.
type ContentTypeForm struct {
	ID          string
	Label       string
	Enabled     bool
	Provisioned bool
	Options     []FieldOption
	Selected    []string
}

// SettingsForm is the full settings form state.
type SettingsForm struct {
	MagnitudeThreshold float64
	ContentTypes       []ContentTypeForm
}

// SaveSettingsRequest bundles a submitted settings form.
type SaveSettingsRequest struct {
	MagnitudeThreshold float64
	Selections         map[string]domain.ContentTypeSelection
}

// Service is the application layer for the sentiment settings. It is the
// only component that references multiple domain components.
type Service struct {
	contentTypes domain.ContentTypeRepository
	fields       domain.FieldStore
	settings     domain.SettingsRepository
	source       domain.SettingsSource
	provisioner  domain.FieldProvisioner
	invalidator  domain.SettingsCacheInvalidator
	reconciler   *Reconciler
}

// NewService creates the application layer service.
// invalidator may be nil when no settings cache is configured.
func NewService(
	contentTypes domain.ContentTypeRepository,
	fields domain.FieldStore,
	settings domain.SettingsRepository,
	source domain.SettingsSource,
	provisioner domain.FieldProvisioner,
	invalidator domain.SettingsCacheInvalidator,
	reconciler *Reconciler,
) *Service {
	return &Service{
		contentTypes: contentTypes,
		fields:       fields,
		settings:     settings,
		source:       source,
		provisioner:  provisioner,
		invalidator:  invalidator,
		reconciler:   reconciler,
	}
}

// GetSettings returns the current settings through the settings source.
func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.source.GetSettings(ctx)
}

// GetSettingsForm builds the form state from the stored settings (or the
// defaults) and the live content types.
func (s *Service) GetSettingsForm(ctx context.Context) (*SettingsForm, error) {
	current, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	contentTypes, err := s.contentTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	form := &SettingsForm{
		MagnitudeThreshold: current.MagnitudeThreshold,
		ContentTypes:       make([]ContentTypeForm, 0, len(contentTypes)),
	}

	for _, ct := range contentTypes {
		options, err := s.fieldOptions(ctx, ct.ID)
		if err != nil {
			return nil, err
		}

		provisioned, err := s.provisioner.HasProvisionedField(ctx, ct.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check sentiment field on %q: %w", ct.ID, err)
		}

		form.ContentTypes = append(form.ContentTypes, ContentTypeForm{
			ID:          ct.ID,
			Label:       ct.Label,
			Enabled:     current.Enabled(ct.ID),
			Provisioned: provisioned,
			Options:     options,
			Selected:    slices.Clone(current.ContentTypes[ct.ID]),
		})
	}

	return form, nil
}

// SaveSettings validates the request against the live content types and
// reconciles the sentiment field. A *ValidationError means nothing changed.
func (s *Service) SaveSettings(ctx context.Context, req SaveSettingsRequest) (*ReconcileReport, error) {
	if err := ValidateThreshold(req.MagnitudeThreshold); err != nil {
		return nil, err
	}

	// Listed fresh on every save so a stale list is never acted upon.
	contentTypes, err := s.contentTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	ids := make([]string, 0, len(contentTypes))
	for _, ct := range contentTypes {
		ids = append(ids, ct.ID)
	}

	if err := s.validateSelections(ctx, ids, req.Selections); err != nil {
		return nil, err
	}

	desired := domain.DesiredSettings{
		MagnitudeThreshold: req.MagnitudeThreshold,
		Selections:         req.Selections,
	}

	report, reconcileErr := s.reconciler.Reconcile(ctx, desired, ids)

	if s.invalidator != nil {
		// Best-effort: the cache entry expires on its own.
		if err := s.invalidator.InvalidateSettings(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to invalidate settings cache", "error", err)
		}
	}

	return report, reconcileErr
}

// ValidateThreshold checks that the threshold is a non-negative multiple of
// the form step.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return &ValidationError{Field: "sentiment_magnitude_threshold", Message: "must be a number"}
	}
	if threshold < 0 {
		return &ValidationError{Field: "sentiment_magnitude_threshold", Message: "must be greater than or equal to 0"}
	}
	steps := threshold / ThresholdStep
	if steps != math.Trunc(steps) {
		return &ValidationError{Field: "sentiment_magnitude_threshold", Message: fmt.Sprintf("must be a multiple of %g", ThresholdStep)}
	}
	return nil
}

func (s *Service) validateSelections(ctx context.Context, contentTypes []string, selections map[string]domain.ContentTypeSelection) error {
	for id, selection := range selections {
		if !slices.Contains(contentTypes, id) {
			return &ValidationError{Field: id + "_enabled", Message: "unknown content type"}
		}
		if !selection.Enabled {
			continue
		}

		options, err := s.fieldOptions(ctx, id)
		if err != nil {
			return err
		}
		for _, field := range selection.Fields {
			if field == "" {
				continue
			}
			if !slices.ContainsFunc(options, func(o FieldOption) bool { return o.Name == field }) {
				return &ValidationError{Field: id + "_fields", Message: fmt.Sprintf("illegal choice %q", field)}
			}
		}
	}
	return nil
}

// fieldOptions lists the analyzable fields of a content type.
func (s *Service) fieldOptions(ctx context.Context, contentType string) ([]FieldOption, error) {
	fields, err := s.fields.ListFields(ctx, domain.EntityTypeNode, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields of %q: %w", contentType, err)
	}

	options := make([]FieldOption, 0, len(fields))
	for _, f := range fields {
		if f.Kind.Analyzable() {
			options = append(options, FieldOption{Name: f.Name, Label: f.Label})
		}
	}
	return options, nil
}

func (s *Service) loadSettings(ctx context.Context) (domain.Settings, error) {
	current, err := s.settings.Get(ctx)
	if errors.Is(err, domain.ErrSettingsNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return *current, nil
}
