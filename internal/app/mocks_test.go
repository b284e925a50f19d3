package app

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// --- In-memory content store ---

type memoryContentStore struct {
	contentTypes []domain.ContentType
	storages     map[string]domain.FieldStorage
	fields       map[string]domain.FieldDefinition
	displays     map[string]map[string]domain.FormDisplayComponent

	storageCreates int
	fieldCreates   int
	fieldDeletes   int

	createFieldErr error
	deleteFieldErr error
	setComponentFn func(bundle string) error
}

func newMemoryContentStore(contentTypes ...string) *memoryContentStore {
	s := &memoryContentStore{
		storages: make(map[string]domain.FieldStorage),
		fields:   make(map[string]domain.FieldDefinition),
		displays: make(map[string]map[string]domain.FormDisplayComponent),
	}
	for _, id := range contentTypes {
		s.contentTypes = append(s.contentTypes, domain.ContentType{ID: id, Label: id})
	}
	return s
}

func (s *memoryContentStore) addField(bundle, name string, kind domain.FieldKind) {
	f := domain.FieldDefinition{EntityType: domain.EntityTypeNode, Bundle: bundle, Name: name, Kind: kind, Label: name}
	s.fields[f.ID()] = f
}

func (s *memoryContentStore) hasSentimentField(bundle string) bool {
	_, ok := s.fields[domain.SentimentField(bundle).ID()]
	return ok
}

func (s *memoryContentStore) List(_ context.Context) ([]domain.ContentType, error) {
	return slices.Clone(s.contentTypes), nil
}

func (s *memoryContentStore) Get(_ context.Context, id string) (*domain.ContentType, error) {
	for _, ct := range s.contentTypes {
		if ct.ID == id {
			return &ct, nil
		}
	}
	return nil, domain.ErrContentTypeNotFound
}

func (s *memoryContentStore) GetField(_ context.Context, entityType, bundle, name string) (*domain.FieldDefinition, error) {
	f, ok := s.fields[entityType+"."+bundle+"."+name]
	if !ok {
		return nil, domain.ErrFieldNotFound
	}
	return &f, nil
}

func (s *memoryContentStore) ListFields(_ context.Context, entityType, bundle string) ([]domain.FieldDefinition, error) {
	var out []domain.FieldDefinition
	for _, f := range s.fields {
		if f.EntityType == entityType && f.Bundle == bundle {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b domain.FieldDefinition) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *memoryContentStore) StorageExists(_ context.Context, entityType, name string) (bool, error) {
	_, ok := s.storages[entityType+"."+name]
	return ok, nil
}

func (s *memoryContentStore) CreateStorage(_ context.Context, storage domain.FieldStorage) error {
	if _, ok := s.storages[storage.ID()]; ok {
		return domain.ErrFieldExists
	}
	s.storages[storage.ID()] = storage
	s.storageCreates++
	return nil
}

func (s *memoryContentStore) CreateField(_ context.Context, field domain.FieldDefinition) error {
	if s.createFieldErr != nil {
		return s.createFieldErr
	}
	if _, ok := s.storages[field.EntityType+"."+field.Name]; !ok {
		return domain.ErrFieldStorageMissing
	}
	if _, ok := s.fields[field.ID()]; ok {
		return domain.ErrFieldExists
	}
	s.fields[field.ID()] = field
	s.fieldCreates++
	return nil
}

func (s *memoryContentStore) DeleteField(_ context.Context, entityType, bundle, name string) error {
	if s.deleteFieldErr != nil {
		return s.deleteFieldErr
	}
	id := entityType + "." + bundle + "." + name
	if _, ok := s.fields[id]; !ok {
		return domain.ErrFieldNotFound
	}
	delete(s.fields, id)
	delete(s.displays[bundle], name)
	s.fieldDeletes++
	return nil
}

func (s *memoryContentStore) GetComponents(_ context.Context, _, bundle, _ string) (map[string]domain.FormDisplayComponent, error) {
	return s.displays[bundle], nil
}

func (s *memoryContentStore) SetComponent(_ context.Context, _, bundle, _, fieldName string, component domain.FormDisplayComponent) error {
	if s.setComponentFn != nil {
		if err := s.setComponentFn(bundle); err != nil {
			return err
		}
	}
	if s.displays[bundle] == nil {
		s.displays[bundle] = make(map[string]domain.FormDisplayComponent)
	}
	s.displays[bundle][fieldName] = component
	return nil
}

// --- Settings repository mock ---

type mockSettingsRepo struct {
	current *domain.Settings
	saves   int
	saveErr error
	getErr  error
}

func (m *mockSettingsRepo) Get(_ context.Context) (*domain.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.current == nil {
		return nil, domain.ErrSettingsNotFound
	}
	s := m.current.Clone()
	return &s, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, settings domain.Settings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	s := settings.Clone()
	m.current = &s
	m.saves++
	return nil
}

// --- Provisioner mock ---

type mockProvisioner struct {
	hasFn    func(ctx context.Context, contentType string) (bool, error)
	createFn func(ctx context.Context, contentType string) error
	deleteFn func(ctx context.Context, contentType string) error
	attachFn func(ctx context.Context, contentType string) error
}

func (m *mockProvisioner) HasProvisionedField(ctx context.Context, contentType string) (bool, error) {
	if m.hasFn != nil {
		return m.hasFn(ctx, contentType)
	}
	return false, nil
}

func (m *mockProvisioner) CreateProvisionedField(ctx context.Context, contentType string) error {
	if m.createFn != nil {
		return m.createFn(ctx, contentType)
	}
	return nil
}

func (m *mockProvisioner) DeleteProvisionedField(ctx context.Context, contentType string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, contentType)
	}
	return nil
}

func (m *mockProvisioner) AttachToDefaultFormDisplay(ctx context.Context, contentType string) error {
	if m.attachFn != nil {
		return m.attachFn(ctx, contentType)
	}
	return nil
}

// --- Settings source / invalidator mocks ---

type mockSettingsSource struct {
	getSettingsFn func(ctx context.Context) (domain.Settings, error)
}

func (m *mockSettingsSource) GetSettings(ctx context.Context) (domain.Settings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(ctx)
	}
	return domain.Settings{}, fmt.Errorf("not implemented")
}

type mockInvalidator struct {
	calls int
	err   error
}

func (m *mockInvalidator) InvalidateSettings(_ context.Context) error {
	m.calls++
	return m.err
}

// --- Test helpers ---

func newTestReconciler(t *testing.T, fields domain.FieldProvisioner, settings domain.SettingsRepository) (*Reconciler, *metrics.ReconcileMetrics) {
	t.Helper()
	m := metrics.NewReconcileMetrics(prometheus.NewRegistry())
	return NewReconciler(fields, settings, clockwork.NewFakeClock(), m), m
}

func enabled(fields ...string) domain.ContentTypeSelection {
	return domain.ContentTypeSelection{Enabled: true, Fields: fields}
}
