package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpulse/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Security: config.SecurityConfig{
			EnableCORS:     true,
			AllowedOrigins: []string{"*"},
			RateLimit:      config.RateLimitConfig{Enabled: false},
		},
		Upload: config.UploadConfig{
			MaxFileBytes: 1 << 20,
			MaxFiles:     5,
			AllowedExts:  []string{".csv", ".xlsx"},
			SeriesPoints: 60,
			TopCampaigns: 10,
		},
	}
}

func TestHealthz(t *testing.T) {
	application := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestVersionEndpoint(t *testing.T) {
	application := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)
}

func TestMetricsEndpoint(t *testing.T) {
	application := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsProblemJSON(t *testing.T) {
	application := New(testConfig(), nil)

	rec := httptest.NewRecorder()
	application.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/not-found")
}

func TestSessionFlowThroughFullRouter(t *testing.T) {
	application := New(testConfig(), nil)
	router := application.Router()

	// Create a session
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	// Upload a revenue file
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("files", "revenue.csv")
	require.NoError(t, err)
	part.Write([]byte("timestamp,revenue\n2024-03-01,100\n2024-03-02,200\n2024-03-03,300\n2024-03-04,400\n"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session/"+created.ID+"/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Fetch the summary
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+created.ID+"/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Metrics map[string]struct {
			Value float64 `json:"value"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.InDelta(t, 1000, summary.Metrics["total_revenue"].Value, 1e-9)
}

func TestCORSPreflight(t *testing.T) {
	application := New(testConfig(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	application.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}
