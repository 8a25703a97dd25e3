package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestTracerProviderRecordsRouteSpans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tp, err := NewTracerProvider(ctx, "ia-platform-api", "test", exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	router := gin.New()
	router.Use(otelgin.Middleware("ia-platform-api", otelgin.WithTracerProvider(tp)))
	router.GET("/api/models/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/models/7", nil))
	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/models/:id", spans[0].Name)

	attrs := spans[0].Resource.Set()
	name, ok := attrs.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "ia-platform-api", name.AsString())
	version, ok := attrs.Value(semconv.ServiceVersionKey)
	require.True(t, ok)
	assert.Equal(t, "test", version.AsString())
}

func TestTracerProviderMarksServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()

	tp, err := NewTracerProvider(ctx, "ia-platform-api", "test", exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	router := gin.New()
	router.Use(otelgin.Middleware("ia-platform-api", otelgin.WithTracerProvider(tp)))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /health", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "GET /", spans[1].Name)
	assert.Equal(t, codes.Unset, spans[1].Status.Code)
}
