package postgres

import (
	"context"
	"testing"

	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListContentTypes_Ordered(t *testing.T) {
	pool := setupTestDB(t)
	insertContentType(t, pool, "page", "Basic page", 1)
	insertContentType(t, pool, "article", "Article", 0)
	insertContentType(t, pool, "blog", "Blog post", 1)

	contentTypes, err := NewContentTypeRepo(pool).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.ContentType{
		{ID: "article", Label: "Article"},
		{ID: "blog", Label: "Blog post"},
		{ID: "page", Label: "Basic page"},
	}, contentTypes)
}

func TestGetContentType_NotFound(t *testing.T) {
	pool := setupTestDB(t)

	ct, err := NewContentTypeRepo(pool).Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrContentTypeNotFound)
	assert.Nil(t, ct)
}

func TestGetContentType(t *testing.T) {
	pool := setupTestDB(t)
	insertContentType(t, pool, "article", "Article", 0)

	ct, err := NewContentTypeRepo(pool).Get(context.Background(), "article")
	require.NoError(t, err)
	assert.Equal(t, "Article", ct.Label)
}
