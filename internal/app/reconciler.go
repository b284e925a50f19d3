package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/domain"
)

// ReconcileOp names the provisioning step that failed.
type ReconcileOp string

const (
	OpLookup ReconcileOp = "lookup"
	OpDelete ReconcileOp = "delete"
	OpCreate ReconcileOp = "create"
	OpAttach ReconcileOp = "attach"
)

// ReconcileError reports a failed provisioning step for one content type.
type ReconcileError struct {
	ContentType string
	Op          ReconcileOp
	Err         error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("failed to %s sentiment field on content type %q: %v", e.Op, e.ContentType, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// SaveError reports that the settings could not be recorded.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save settings: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Settings  domain.Settings
	Created   []string
	Deleted   []string
	Failed    []string
	StartedAt time.Time
	Duration  time.Duration
}

// Reconciler synchronizes the sentiment field on content types with the
// submitted settings and persists them.
type Reconciler struct {
	fields   domain.FieldProvisioner
	settings domain.SettingsRepository
	clock    clockwork.Clock
	metrics  *metrics.ReconcileMetrics
}

// NewReconciler creates a reconciler over the given collaborators.
func NewReconciler(fields domain.FieldProvisioner, settings domain.SettingsRepository, clock clockwork.Clock, m *metrics.ReconcileMetrics) *Reconciler {
	return &Reconciler{
		fields:   fields,
		settings: settings,
		clock:    clock,
		metrics:  m,
	}
}

// Reconcile walks contentTypes in order, deleting the sentiment field where a
// content type was disabled and creating it where one was enabled, then saves
// the settings with a single write.
//
// A failed step stops processing of that content type only. Content types
// already handled stay applied and the settings are saved regardless; every
// failure is returned as a *ReconcileError joined into the result, next to a
// *SaveError when the settings could not be recorded.
func (r *Reconciler) Reconcile(ctx context.Context, desired domain.DesiredSettings, contentTypes []string) (*ReconcileReport, error) {
	start := r.clock.Now()
	report := &ReconcileReport{
		StartedAt: start,
		Settings: domain.Settings{
			MagnitudeThreshold: desired.MagnitudeThreshold,
			ContentTypes:       make(map[string][]string),
		},
	}

	var errs []error
	for _, contentType := range contentTypes {
		err := r.reconcileContentType(ctx, contentType, desired.Selection(contentType), report)
		if err == nil {
			continue
		}

		var recErr *ReconcileError
		if errors.As(err, &recErr) {
			r.metrics.ProvisioningErrors.WithLabelValues(string(recErr.Op)).Inc()
		}
		slog.ErrorContext(ctx, "Sentiment field provisioning failed", "content_type", contentType, "error", err)
		report.Failed = append(report.Failed, contentType)
		errs = append(errs, err)
	}

	result := "success"
	if len(errs) > 0 {
		result = "partial"
	}

	if err := r.settings.Save(ctx, report.Settings); err != nil {
		result = "failed"
		errs = append(errs, &SaveError{Err: err})
	}

	report.Duration = r.clock.Since(start)
	r.metrics.Runs.WithLabelValues(result).Inc()
	r.metrics.Duration.Observe(report.Duration.Seconds())
	if result != "failed" {
		r.metrics.EnabledTypes.Set(float64(len(report.Settings.ContentTypes)))
	}

	slog.InfoContext(ctx, "Sentiment settings reconciled",
		"result", result,
		"enabled", len(report.Settings.ContentTypes),
		"created", report.Created,
		"deleted", report.Deleted,
		"failed", report.Failed,
		"duration", report.Duration)

	return report, errors.Join(errs...)
}

func (r *Reconciler) reconcileContentType(ctx context.Context, contentType string, selection domain.ContentTypeSelection, report *ReconcileReport) error {
	provisioned, err := r.fields.HasProvisionedField(ctx, contentType)
	if err != nil {
		// The selection is still recorded; a resubmission retries provisioning.
		if selection.Enabled {
			report.Settings.ContentTypes[contentType] = selectedFields(selection.Fields)
		}
		return &ReconcileError{ContentType: contentType, Op: OpLookup, Err: err}
	}

	if provisioned && !selection.Enabled {
		if err := r.fields.DeleteProvisionedField(ctx, contentType); err != nil {
			return &ReconcileError{ContentType: contentType, Op: OpDelete, Err: err}
		}
		report.Deleted = append(report.Deleted, contentType)
		r.metrics.FieldsDeleted.Inc()
	}

	if selection.Enabled {
		report.Settings.ContentTypes[contentType] = selectedFields(selection.Fields)
	}

	if !provisioned && selection.Enabled {
		if err := r.fields.CreateProvisionedField(ctx, contentType); err != nil {
			return &ReconcileError{ContentType: contentType, Op: OpCreate, Err: err}
		}
		report.Created = append(report.Created, contentType)
		r.metrics.FieldsCreated.Inc()

		if err := r.fields.AttachToDefaultFormDisplay(ctx, contentType); err != nil {
			return &ReconcileError{ContentType: contentType, Op: OpAttach, Err: err}
		}
	}

	return nil
}

// selectedFields drops unchecked (empty) entries and never returns nil, so an
// enabled content type without fields persists as an empty list.
func selectedFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
