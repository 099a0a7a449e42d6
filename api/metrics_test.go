package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoutePath(t *testing.T) {
	assert.Equal(t, "/api/v1/recipe/{id}",
		normalizeRoutePath("/api/v1/recipe/507f1f77bcf86cd799439011"))
	assert.Equal(t, "/api/v1/family/{id}/members/{id}",
		normalizeRoutePath("/api/v1/family/507f1f77bcf86cd799439011/members/507f191e810c19729de860ea"))
	assert.Equal(t, "/api/v1/families", normalizeRoutePath("/api/v1/families"))
}

func TestMetricsMiddleware_RecordsRequests(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/api/v1/recipe/507f1f77bcf86cd799439011", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTeapot, rr.Code)

	routes, _ := stats.snapshot()
	var found *RouteStat
	for i := range routes {
		if routes[i].Method == "GET" && routes[i].Path == "/api/v1/recipe/{id}" {
			found = &routes[i]
			break
		}
	}
	if assert.NotNil(t, found) {
		assert.GreaterOrEqual(t, found.Count, int64(1))
		assert.GreaterOrEqual(t, found.ErrorCount, int64(1))
	}
}

func TestMetricsMiddleware_SkipsHealth(t *testing.T) {
	before, _ := stats.snapshot()
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	after, _ := stats.snapshot()
	assert.Equal(t, len(before), len(after))
}

func TestMetricsHandler(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/families", nil))

	rr := httptest.NewRecorder()
	MetricsHandler(rr, httptest.NewRequest("GET", "/api/v1/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Summary map[string]interface{} `json:"summary"`
		Routes  []RouteStat            `json:"routes"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Routes)
	assert.NotNil(t, got.Summary["totalRequests"])
}

func TestTimeoutMiddleware_SlowRequest(t *testing.T) {
	handler := TimeoutMiddleware(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/families", nil))

	assert.Equal(t, http.StatusRequestTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), "request timed out")
}

func TestTimeoutMiddleware_FastRequest(t *testing.T) {
	handler := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/families", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithQueryTimeout(t *testing.T) {
	ctx, cancel := WithQueryTimeout(nil)
	defer cancel()

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(QueryTimeout), deadline, time.Second)
}
