package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/domain/recipe"
)

const responseBody = `{
  "from": 1, "to": 1, "count": 1,
  "hits": [
    {"recipe": {
      "label": "Shakshuka",
      "image": "https://img.example.com/shakshuka.jpg",
      "source": "Serious Eats",
      "ingredientLines": ["4 eggs", "1 can tomatoes"],
      "url": "https://example.com/shakshuka",
      "calories": 1234.5678
    }}
  ]
}`

type fakeAPI struct {
	server *httptest.Server
	hits   atomic.Int32
	query  atomic.Value
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.hits.Add(1)
		api.query.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(api.server.Close)

	t.Chdir(t.TempDir())
	t.Setenv("SURPRISE_SEARCH_BASE_URL", api.server.URL+"/api/recipes/v2")
	t.Setenv("SURPRISE_SEARCH_APP_ID", "abc123")
	t.Setenv("SURPRISE_SEARCH_APP_KEY", "s3cr3t")
	return api
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewCommand(&out, &errOut).Run(context.Background(), append([]string{name}, args...))
	return out.String(), err
}

func TestSearch_JSON(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, responseBody)

	out, err := run(t, "search", "--meal", "Lunch", "--allergy", "dairy-free", "--time", "30", "--format", "json")
	require.NoError(t, err)

	assert.Equal(t, "type=public&app_id=abc123&app_key=s3cr3t&mealType=Lunch&time=30&random=true&health=dairy-free",
		api.query.Load())

	var records []recipe.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Shakshuka", records[0].Title())
	assert.Equal(t, []string{"4 eggs", "1 can tomatoes"}, records[0].IngredientLines())
	assert.InDelta(t, 1234.5678, records[0].Calories(), 1e-9)
}

func TestSearch_TableAndYAML(t *testing.T) {
	newFakeAPI(t, http.StatusOK, responseBody)

	out, err := run(t, "search")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "TITLE"))
	assert.Contains(t, lines[1], "Shakshuka")
	assert.Contains(t, lines[1], "1234.6")

	out, err = run(t, "search", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Shakshuka")
	assert.Contains(t, out, "- 4 eggs")
}

func TestSearch_EmptyHitsPrintsNothing(t *testing.T) {
	newFakeAPI(t, http.StatusOK, `{"hits":[]}`)

	out, err := run(t, "search")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = run(t, "search", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestSearch_DryRun(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, responseBody)

	out, err := run(t, "search", "--dry-run", "--meal", "snack", "--diet", "balanced", "--diet", "low-fat", "--time", "")
	require.NoError(t, err)

	assert.Equal(t, int32(0), api.hits.Load())
	assert.Contains(t, out, "app_id=REDACTED")
	assert.Contains(t, out, "app_key=REDACTED")
	assert.NotContains(t, out, "s3cr3t")
	assert.Contains(t, out, "mealType=Snack&time=&random=true&diet=balanced&diet=low-fat")
	assert.NotContains(t, out, "health=")
}

func TestSearch_Failures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		newFakeAPI(t, http.StatusInternalServerError, `{"error":"boom"}`)

		_, err := run(t, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), search.FetchFailedMessage)
	})

	t.Run("unreadable body", func(t *testing.T) {
		newFakeAPI(t, http.StatusOK, `<html>`)

		_, err := run(t, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), search.FetchFailedMessage)
	})

	t.Run("unknown meal", func(t *testing.T) {
		api := newFakeAPI(t, http.StatusOK, responseBody)

		_, err := run(t, "search", "--meal", "Brunch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid search")
		assert.Equal(t, int32(0), api.hits.Load())
	})

	t.Run("unknown format", func(t *testing.T) {
		newFakeAPI(t, http.StatusOK, responseBody)

		_, err := run(t, "search", "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})
}

func TestOptions(t *testing.T) {
	out, err := run(t, "options")
	require.NoError(t, err)

	assert.Contains(t, out, "GROUP")
	assert.Contains(t, out, "Breakfast")
	assert.Contains(t, out, "dairy-free")
	assert.Contains(t, out, "balanced")
}

func TestFormat(t *testing.T) {
	assert.False(t, Format("json").IsUnknown())
	assert.True(t, Format("xml").IsUnknown())
	assert.Equal(t, []string{"table", "json", "yaml"}, SupportedFormats())
}
