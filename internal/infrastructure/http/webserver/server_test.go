package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/surpriseme/recipes/internal/application/search"
	"github.com/surpriseme/recipes/internal/domain/filter"
	"github.com/surpriseme/recipes/internal/domain/recipe"
	"github.com/surpriseme/recipes/internal/infrastructure/config"
	"github.com/surpriseme/recipes/internal/infrastructure/monitoring"
	"github.com/surpriseme/recipes/internal/ports/outbound"
	"github.com/surpriseme/recipes/internal/testutil"
	apperrors "github.com/surpriseme/recipes/pkg/errors"
	"github.com/surpriseme/recipes/pkg/healthcheck"
)

const rawBody = `{"hits":[{"recipe":{"label":"Shakshuka"}},{"recipe":{"label":"Green Salad"}}]}`

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "Surprise Me", Environment: "test"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 3000, EnableCompression: true},
		Search: config.SearchConfig{BaseURL: "https://api.edamam.com/api/recipes/v2"},
		Session: config.SessionConfig{
			CookieName: "surprise-session",
			TTL:        time.Hour,
		},
		Monitoring: config.MonitoringConfig{
			EnableMetrics:   true,
			MetricsPath:     "/metrics",
			HealthCheckPath: "/health",
			ReadinessPath:   "/ready",
			LivenessPath:    "/live",
		},
	}
}

func sampleRecords() []recipe.Record {
	return []recipe.Record{
		recipe.NewRecord("Shakshuka", "https://img.example.com/shakshuka.jpg", "Serious Eats",
			[]string{"4 eggs", "1 can tomatoes", "1 tsp cumin"}, "https://example.com/shakshuka", 1234.5678),
		recipe.NewRecord("Green Salad", "https://img.example.com/salad.jpg", "Food52",
			[]string{"1 head lettuce"}, "https://example.com/salad", 98.7654321),
	}
}

// WebServerTestSuite drives the frontend through a real HTTP server with a
// stubbed searcher
type WebServerTestSuite struct {
	suite.Suite
	server *httptest.Server
	client *http.Client

	mu       sync.Mutex
	results  []searchReply
	selected []filter.Selection
}

type searchReply struct {
	result *outbound.SearchResult
	err    error
}

func TestWebServerTestSuite(t *testing.T) {
	suite.Run(t, new(WebServerTestSuite))
}

func (suite *WebServerTestSuite) SetupTest() {
	if suite.server != nil {
		suite.server.Close()
	}
	logger := zap.NewNop()
	cfg := testConfig()

	searcher := testutil.SearcherFunc(func(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error) {
		suite.mu.Lock()
		defer suite.mu.Unlock()
		suite.selected = append(suite.selected, sel)
		if len(suite.results) == 0 {
			return nil, errors.New("no reply configured")
		}
		reply := suite.results[0]
		suite.results = suite.results[1:]
		return reply.result, reply.err
	})

	metrics := monitoring.NewMetricsCollector(logger)
	ws, err := NewWebServer(Dependencies{
		Config:      cfg,
		Logger:      logger,
		Service:     search.NewService(searcher, logger, search.WithMetrics(metrics)),
		Sessions:    NewSessionStore(cfg.Session, logger),
		HealthCheck: healthcheck.New("test", logger),
		Metrics:     metrics,
	})
	suite.Require().NoError(err)

	suite.server = httptest.NewServer(ws.Handler())
	jar, err := cookiejar.New(nil)
	suite.Require().NoError(err)
	suite.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	suite.results = nil
	suite.selected = nil
}

func (suite *WebServerTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *WebServerTestSuite) reply(result *outbound.SearchResult, err error) {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	suite.results = append(suite.results, searchReply{result: result, err: err})
}

func (suite *WebServerTestSuite) get(path string) (*http.Response, string) {
	resp, err := suite.client.Get(suite.server.URL + path)
	suite.Require().NoError(err)
	return resp, readBody(suite.T(), resp)
}

func (suite *WebServerTestSuite) postForm(path string, form url.Values, htmx bool) (*http.Response, string) {
	req, err := http.NewRequest(http.MethodPost, suite.server.URL+path, strings.NewReader(form.Encode()))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	return resp, readBody(suite.T(), resp)
}

func (suite *WebServerTestSuite) postJSON(path, body string) (*http.Response, string) {
	resp, err := suite.client.Post(suite.server.URL+path, "application/json", bytes.NewBufferString(body))
	suite.Require().NoError(err)
	return resp, readBody(suite.T(), resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (suite *WebServerTestSuite) TestHome() {
	resp, body := suite.get("/")

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(resp.Header.Get("Content-Type"), "text/html")
	suite.Equal("DENY", resp.Header.Get("X-Frame-Options"))
	suite.NotEmpty(resp.Header.Get("X-Request-ID"))

	for _, want := range []string{
		"Choose a mealtime",
		"Allergies",
		"Indicate any Allergies",
		"Diet Preferences",
		"Indicate any diet preferences",
		"Max Cook Time",
		`placeholder="in minutes, ex: 30"`,
		"leave blank for no preference",
		`value="1000"`,
		"Surprise Me",
		`<option value="Breakfast" selected>`,
	} {
		suite.Contains(body, want)
	}
	for _, opt := range filter.AllergyOptions() {
		suite.Contains(body, `value="`+opt.ID+`"`)
	}
	for _, opt := range filter.DietOptions() {
		suite.Contains(body, `value="`+opt.ID+`"`)
	}
	suite.NotContains(body, `class="card"`)
	suite.NotContains(body, "toast-title")

	u, _ := url.Parse(suite.server.URL)
	suite.NotEmpty(suite.client.Jar.Cookies(u))
}

func (suite *WebServerTestSuite) TestMealSelection() {
	suite.Run("KnownMeal_ShouldReturnSelectorPartial", func() {
		resp, body := suite.postForm("/htmx/meal", url.Values{"meal": {"Lunch"}}, true)

		suite.Equal(http.StatusOK, resp.StatusCode)
		suite.Contains(body, `id="meal-selector"`)
		suite.Contains(body, `<option value="Lunch" selected>`)
		suite.NotContains(body, "<html")

		_, page := suite.get("/")
		suite.Contains(page, `<label for="meal">Lunch</label>`)
	})

	suite.Run("UnknownMeal_ShouldReturnBadRequest", func() {
		resp, body := suite.postForm("/htmx/meal", url.Values{"meal": {"Brunch"}}, true)

		suite.Equal(http.StatusBadRequest, resp.StatusCode)
		suite.Contains(body, "error-fragment")

		_, page := suite.get("/")
		suite.Contains(page, `<label for="meal">Lunch</label>`)
	})
}

func (suite *WebServerTestSuite) TestFilterControls() {
	resp, _ := suite.postForm("/htmx/allergies", url.Values{"tag": {"dairy-free"}, "checked": {"true"}}, true)
	suite.Equal(http.StatusNoContent, resp.StatusCode)

	// A checkbox posting itself carries its value instead of checked.
	resp, _ = suite.postForm("/htmx/diets", url.Values{"tag": {"balanced"}, "diets": {"balanced"}}, true)
	suite.Equal(http.StatusNoContent, resp.StatusCode)

	resp, _ = suite.postForm("/htmx/cook-time", url.Values{"cook_time": {"30"}}, true)
	suite.Equal(http.StatusNoContent, resp.StatusCode)

	_, page := suite.get("/")
	suite.Contains(page, `value="dairy-free" checked`)
	suite.Contains(page, `value="balanced" checked`)
	suite.Contains(page, `value="30"`)

	resp, _ = suite.postForm("/htmx/diets", url.Values{"tag": {"balanced"}}, true)
	suite.Equal(http.StatusNoContent, resp.StatusCode)
	_, page = suite.get("/")
	suite.NotContains(page, `value="balanced" checked`)

	resp, _ = suite.postForm("/htmx/allergies", url.Values{"checked": {"true"}}, true)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = suite.postForm("/htmx/allergies", url.Values{"tag": {"vegan"}, "checked": {"maybe"}}, true)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *WebServerTestSuite) TestSearch_HTMX() {
	suite.Run("Success_ShouldRenderCardsAndDrainToast", func() {
		suite.SetupTest()
		suite.reply(&outbound.SearchResult{Records: sampleRecords(), Raw: []byte(rawBody)}, nil)

		suite.postForm("/htmx/meal", url.Values{"meal": {"Lunch"}}, true)
		resp, body := suite.postForm("/search", url.Values{
			"items":     {"dairy-free"},
			"cook_time": {"30"},
		}, true)

		suite.Equal(http.StatusOK, resp.StatusCode)
		suite.Equal(2, strings.Count(body, `class="card"`))
		suite.Less(strings.Index(body, "Shakshuka"), strings.Index(body, "Green Salad"))
		suite.Contains(body, "Calories: 1234.6")
		suite.Contains(body, "Calories: 98.765")
		suite.Less(strings.Index(body, "4 eggs"), strings.Index(body, "1 can tomatoes"))
		suite.Contains(body, `href="https://example.com/shakshuka"`)
		suite.Contains(body, `src="https://img.example.com/shakshuka.jpg"`)
		suite.Contains(body, search.SuccessTitle)
		suite.Contains(body, `hx-swap-oob="true"`)

		suite.Require().Len(suite.selected, 1)
		sel := suite.selected[0]
		suite.Equal(filter.MealLunch, sel.Meal())
		suite.Equal([]string{"dairy-free"}, sel.Allergies())
		suite.Empty(sel.Diets())
		suite.Equal("30", sel.CookTime())

		_, page := suite.get("/")
		suite.Equal(2, strings.Count(page, `class="card"`))
		suite.NotContains(page, search.SuccessTitle)
	})

	suite.Run("Failure_ShouldKeepResultsAndShowOneError", func() {
		suite.SetupTest()
		suite.reply(&outbound.SearchResult{Records: sampleRecords(), Raw: []byte(rawBody)}, nil)
		suite.reply(nil, apperrors.NewExternalServiceError("recipe search", errors.New("connection refused")))

		suite.postForm("/search", url.Values{"cook_time": {"30"}}, true)
		resp, body := suite.postForm("/search", url.Values{"cook_time": {"15"}}, true)

		suite.Equal(http.StatusOK, resp.StatusCode)
		suite.Equal(2, strings.Count(body, `class="card"`))
		suite.Equal(1, strings.Count(body, "toast toast-error"))
		suite.Contains(body, search.FetchFailedMessage)
		suite.NotContains(body, search.SuccessTitle)
	})

	suite.Run("EmptyHits_ShouldRenderNoCards", func() {
		suite.SetupTest()
		suite.reply(&outbound.SearchResult{Records: []recipe.Record{}, Raw: []byte(`{"hits":[]}`)}, nil)

		resp, body := suite.postForm("/search", url.Values{"cook_time": {""}}, true)

		suite.Equal(http.StatusOK, resp.StatusCode)
		suite.NotContains(body, `class="card"`)
		suite.Contains(body, search.SuccessTitle)
		suite.Require().Len(suite.selected, 1)
		suite.Equal("", suite.selected[0].CookTime())
	})

	suite.Run("MissingCookTime_ShouldRejectWithoutFetching", func() {
		suite.SetupTest()

		resp, body := suite.postForm("/search", url.Values{"items": {"vegan"}}, true)

		suite.Equal(http.StatusOK, resp.StatusCode)
		suite.Contains(body, "cook_time is required")
		suite.Contains(body, `data-field="cook_time"`)
		suite.Empty(suite.selected)
	})
}

func (suite *WebServerTestSuite) TestSearch_PlainFormPost() {
	suite.reply(&outbound.SearchResult{Records: sampleRecords(), Raw: []byte(rawBody)}, nil)

	resp, _ := suite.postForm("/search", url.Values{"cook_time": {"1000"}}, false)
	suite.Equal(http.StatusSeeOther, resp.StatusCode)
	suite.Equal("/", resp.Header.Get("Location"))

	_, page := suite.get("/")
	suite.Contains(page, search.SuccessTitle)
	suite.Equal(2, strings.Count(page, `class="card"`))

	_, page = suite.get("/")
	suite.NotContains(page, search.SuccessTitle)
}

func (suite *WebServerTestSuite) TestAPISearch() {
	suite.Run("Success", func() {
		suite.SetupTest()
		suite.reply(&outbound.SearchResult{Records: sampleRecords(), Raw: []byte(rawBody)}, nil)

		resp, body := suite.postJSON("/api/search", `{"items":["dairy-free"],"diets":[],"cook_time":"30","meal":"dinner"}`)
		suite.Require().Equal(http.StatusOK, resp.StatusCode, body)

		var got struct {
			Recipes []recipe.Record `json:"recipes"`
			Raw     json.RawMessage `json:"raw"`
		}
		suite.Require().NoError(json.Unmarshal([]byte(body), &got))
		suite.Require().Len(got.Recipes, 2)
		suite.True(got.Recipes[0].Equal(sampleRecords()[0]))
		suite.JSONEq(rawBody, string(got.Raw))

		suite.Require().Len(suite.selected, 1)
		suite.Equal(filter.MealDinner, suite.selected[0].Meal())
	})

	suite.Run("WrongFieldType_ShouldReturn422", func() {
		suite.SetupTest()

		resp, body := suite.postJSON("/api/search", `{"items":"dairy-free","diets":[],"cook_time":30}`)
		suite.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

		var got apperrors.ErrorResponse
		suite.Require().NoError(json.Unmarshal([]byte(body), &got))
		suite.Equal(apperrors.CodeValidationFailed, got.Error.Code)
		suite.Contains(got.Error.Details, "items must be an array of strings")
		suite.Contains(got.Error.Details, "cook_time must be a string")
		suite.NotEmpty(got.Error.RequestID)
		suite.Empty(suite.selected)
	})

	suite.Run("FetchFailure_ShouldReturn502", func() {
		suite.SetupTest()
		suite.reply(nil, apperrors.NewResponseDecodeError("recipe search", errors.New("unexpected EOF")))

		resp, body := suite.postJSON("/api/search", `{"items":[],"diets":[],"cook_time":""}`)
		suite.Equal(http.StatusBadGateway, resp.StatusCode)

		var got apperrors.ErrorResponse
		suite.Require().NoError(json.Unmarshal([]byte(body), &got))
		suite.Equal(apperrors.CodeExternalServiceError, got.Error.Code)
		suite.Equal(search.FetchFailedMessage, got.Error.Message)
	})
}

func (suite *WebServerTestSuite) TestOperationalEndpoints() {
	resp, _ := suite.get("/live")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = suite.get("/ready")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = suite.get("/health")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, css := suite.get("/static/app.css")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(css, ".card")

	suite.reply(&outbound.SearchResult{Records: sampleRecords(), Raw: []byte(rawBody)}, nil)
	suite.postForm("/search", url.Values{"cook_time": {"30"}}, true)

	resp, metrics := suite.get("/metrics")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(metrics, `surprise_search_requests_total{outcome="success"} 1`)
	suite.Contains(metrics, `route="/search"`)
}

func TestNewWebServer_BadTemplatesDir(t *testing.T) {
	cfg := testConfig()
	cfg.Server.TemplatesDir = t.TempDir()

	_, err := NewWebServer(Dependencies{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Service:  search.NewService(testutil.SearcherFunc(nil), zap.NewNop()),
		Sessions: NewSessionStore(cfg.Session, zap.NewNop()),
	})
	assert.Error(t, err)
}

func TestCheckedValue(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		want    bool
		wantErr bool
	}{
		{"explicit true", url.Values{"checked": {"true"}}, true, false},
		{"checkbox on", url.Values{"checked": {"on"}}, true, false},
		{"explicit false wins over group", url.Values{"checked": {"false"}, "items": {"vegan"}}, false, false},
		{"inferred from group", url.Values{"items": {"vegan"}}, true, false},
		{"absent from group", url.Values{"items": {"peanut-free"}}, false, false},
		{"garbage", url.Values{"checked": {"maybe"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkedValue(tt.form, "items", "vegan")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_AbandonedRequestStillLandsOnSession(t *testing.T) {
	logger := zap.NewNop()
	cfg := testConfig()

	late := recipe.NewRecord("Late Soup", "https://img.example.com/soup.jpg", "Bon Appetit",
		[]string{"1 l stock"}, "https://example.com/soup", 321)
	searcher := testutil.SearcherFunc(func(ctx context.Context, sel filter.Selection) (*outbound.SearchResult, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return &outbound.SearchResult{
				Records: []recipe.Record{late},
				Raw:     []byte(`{"hits":[{"recipe":{"label":"Late Soup"}}]}`),
			}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	ws, err := NewWebServer(Dependencies{
		Config:      cfg,
		Logger:      logger,
		Service:     search.NewService(searcher, logger),
		Sessions:    NewSessionStore(cfg.Session, logger),
		HealthCheck: healthcheck.New("test", logger),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	// Arrange: open the page so the session cookie exists.
	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	readBody(t, resp)

	// Act: submit and walk away before the upstream answers.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	form := url.Values{"cook_time": {"30"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/search", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	_, err = client.Do(req)
	require.Error(t, err)

	// Assert: the late result and its toast show up on the next page load.
	var page string
	assert.Eventually(t, func() bool {
		resp, err := client.Get(srv.URL + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		page = string(b)
		return strings.Contains(page, "Late Soup")
	}, 2*time.Second, 25*time.Millisecond)
	assert.Contains(t, page, `<article class="card">`)
	assert.Contains(t, page, search.SuccessTitle)
	assert.NotContains(t, page, search.FetchFailedMessage)
}
