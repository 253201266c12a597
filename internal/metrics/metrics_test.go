package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/profiles/backend/internal/models"
)

func TestObserveValidation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidation(models.ValidationErrors{
		{Field: "gender", Message: "not included in list", Rule: "gender_in_set"},
		{Field: "first_name", Message: "cannot be nil if Last Name is nil!", Rule: "names_not_both_null"},
	})
	m.ObserveValidation(models.ValidationErrors{
		{Field: "gender", Message: "not included in list", Rule: "gender_in_set"},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("gender_in_set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("names_not_both_null")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.validationFailures.WithLabelValues("no_boy_named_sue")))
}

func TestObserveRangeQueryAndHTTP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRangeQuery()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/profiles", http.StatusOK)
	m.ObserveHTTPRequest(http.MethodGet, "", http.StatusNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.rangeQueries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/profiles", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRangeQuery()
		m.ObserveValidation(models.ValidationErrors{{Rule: "gender_in_set"}})
		m.ObserveHTTPRequest("GET", "/", 200)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRangeQuery()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "profiles_profile_range_queries_total 1")
}

func TestNewRegistryIncludesRuntimeCollectors(t *testing.T) {
	m := New(NewRegistry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
