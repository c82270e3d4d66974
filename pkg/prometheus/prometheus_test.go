package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/immersionlab/backend/internal/common"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	common.PromCounters[common.RecomputeTotal].WithLabelValues("batch", "success").Inc()

	rec := httptest.NewRecorder()
	NewHandler("api").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `recompute_total{path="batch",result="success",service="api"}`)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}
