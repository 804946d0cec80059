package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibook/share-engine/internal/config"
)

const catalogJSON = `{
  "name": "label-templates",
  "templates": [
    {"name": "standard", "layout": "layout-a", "version": "1.0.0"},
    {"name": "large-print", "layout": "layout-b", "version": "1.2.0"}
  ]
}`

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{
			name: "valid",
			catalog: Catalog{Name: "c", Templates: []Template{
				{Name: "a", Layout: "l"},
			}},
		},
		{
			name:    "missing name",
			catalog: Catalog{},
			wantErr: "catalog name is required",
		},
		{
			name: "template without layout",
			catalog: Catalog{Name: "c", Templates: []Template{
				{Name: "a"},
			}},
			wantErr: "layout is required",
		},
		{
			name: "duplicate template name",
			catalog: Catalog{Name: "c", Templates: []Template{
				{Name: "a", Layout: "l"},
				{Name: "a", Layout: "l"},
			}},
			wantErr: "duplicate template name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestFileSourceFetch(t *testing.T) {
	t.Parallel()

	source := NewFileSource(writeCatalogFile(t, catalogJSON))

	cat, hash, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "label-templates", cat.Name)
	assert.Len(t, cat.Templates, 2)
	assert.NotEmpty(t, hash)

	current, err := source.CurrentHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, current, "fetch and hash-only read agree on unchanged data")
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	source := NewFileSource(filepath.Join(t.TempDir(), "missing.json"))
	_, _, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "not found")
}

func TestFileSourceRejectsInvalidCatalog(t *testing.T) {
	t.Parallel()

	source := NewFileSource(writeCatalogFile(t, `{"templates": []}`))
	_, _, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid catalog")
}

func TestAPISourceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	source := NewAPISource(server.URL)
	cat, hash, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "label-templates", cat.Name)
	assert.NotEmpty(t, hash)
}

func TestStorageRoundTrip(t *testing.T) {
	t.Parallel()

	storage := NewFileStorageManager(t.TempDir())
	ctx := context.Background()

	cat := &Catalog{Name: "c", Templates: []Template{{Name: "a", Layout: "l"}}}
	require.NoError(t, storage.Store(ctx, cat))

	got, err := storage.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, cat, got)

	require.NoError(t, storage.Delete(ctx))
	_, err = storage.Get(ctx)
	require.Error(t, err)

	// Deleting a missing cache is success.
	assert.NoError(t, storage.Delete(ctx))
}

func TestRefresherChanged(t *testing.T) {
	t.Parallel()

	path := writeCatalogFile(t, catalogJSON)
	source := NewFileSource(path)
	storage := NewFileStorageManager(t.TempDir())
	r := NewRefresher(source, storage)
	ctx := context.Background()

	// Never refreshed: treated as changed.
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, r.Refresh(ctx))

	changed, err = r.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	// Upstream mutation flips the answer.
	mutated := `{"name": "label-templates", "templates": [{"name": "standard", "layout": "layout-c"}]}`
	require.NoError(t, os.WriteFile(path, []byte(mutated), 0600))

	changed, err = r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, r.Refresh(ctx))
	cached, err := storage.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "layout-c", cached.Templates[0].Layout)
}

func TestNewSource(t *testing.T) {
	t.Parallel()

	source, err := NewSource(&config.CatalogConfig{
		Name: "c",
		File: &config.FileConfig{Path: "/tmp/catalog.json"},
	})
	require.NoError(t, err)
	assert.IsType(t, &FileSource{}, source)

	source, err = NewSource(&config.CatalogConfig{
		Name: "c",
		API:  &config.APIConfig{Endpoint: "https://example.com/catalog"},
	})
	require.NoError(t, err)
	assert.IsType(t, &APISource{}, source)

	source, err = NewSource(&config.CatalogConfig{
		Name: "c",
		Git:  &config.GitConfig{Repository: "https://example.com/r.git"},
	})
	require.NoError(t, err)
	assert.IsType(t, &GitSource{}, source)

	_, err = NewSource(&config.CatalogConfig{Name: "c"})
	require.Error(t, err)
}
