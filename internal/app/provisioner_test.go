package app

import (
	"context"
	"errors"
	"testing"

	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisioner_CreateBuildsStorageOnce(t *testing.T) {
	store := newMemoryContentStore("article", "page")
	p := NewSentimentFieldProvisioner(store, store)
	ctx := context.Background()

	require.NoError(t, p.CreateProvisionedField(ctx, "article"))
	require.NoError(t, p.CreateProvisionedField(ctx, "page"))

	assert.Equal(t, 1, store.storageCreates)
	storage := store.storages["node."+domain.SentimentFieldName]
	assert.Equal(t, domain.FieldKindFloat, storage.Kind)
	assert.Equal(t, 1, storage.Cardinality)
	assert.True(t, storage.Translatable)
	assert.False(t, storage.Locked)

	field := store.fields["node.article."+domain.SentimentFieldName]
	assert.Equal(t, "Google NL Sentiment", field.Label)
	assert.Equal(t, "-1", field.Settings["min"])
	assert.Equal(t, "1", field.Settings["max"])
}

func TestProvisioner_HasProvisionedField(t *testing.T) {
	store := newMemoryContentStore("article")
	p := NewSentimentFieldProvisioner(store, store)
	ctx := context.Background()

	has, err := p.HasProvisionedField(ctx, "article")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, p.CreateProvisionedField(ctx, "article"))

	has, err = p.HasProvisionedField(ctx, "article")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestProvisioner_DeleteWrapsError(t *testing.T) {
	store := newMemoryContentStore("article")
	store.deleteFieldErr = errors.New("locked")
	p := NewSentimentFieldProvisioner(store, store)

	err := p.DeleteProvisionedField(context.Background(), "article")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete field")
}

func TestProvisioner_CreateFieldFailure(t *testing.T) {
	store := newMemoryContentStore("article")
	store.createFieldErr = errors.New("name collision")
	p := NewSentimentFieldProvisioner(store, store)

	err := p.CreateProvisionedField(context.Background(), "article")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name collision")
	// Storage stays, matching the lazy create-once lifecycle.
	assert.Equal(t, 1, store.storageCreates)
}

func TestProvisioner_Attach(t *testing.T) {
	store := newMemoryContentStore("article")
	p := NewSentimentFieldProvisioner(store, store)

	require.NoError(t, p.AttachToDefaultFormDisplay(context.Background(), "article"))

	components, err := store.GetComponents(context.Background(), domain.EntityTypeNode, "article", domain.DefaultFormMode)
	require.NoError(t, err)
	assert.Equal(t, domain.SentimentFormComponent(), components[domain.SentimentFieldName])
}
