package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"devcentral/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware_SpanNamedAfterRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("devcentral-test")
	t.Cleanup(func() {
		observability.Tracer = prev
		_ = tp.Shutdown(context.Background())
	})

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Post("/post/:id/:action/", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		return c.SendStatus(fiber.StatusSeeOther)
	})
	app.Get("/boom/", func(c *fiber.Ctx) error {
		return fiber.ErrInternalServerError
	})

	tests := []struct {
		method   string
		path     string
		wantName string
		wantCode codes.Code
	}{
		{http.MethodPost, "/post/42/like/", "POST /post/:id/:action/", codes.Unset},
		{http.MethodPost, "/post/7/dislike/", "POST /post/:id/:action/", codes.Unset},
		{http.MethodGet, "/boom/", "GET /boom/", codes.Error},
		{http.MethodGet, "/nowhere/", "GET unmatched", codes.Unset},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	ended := sr.Ended()
	require.Len(t, ended, len(tests))
	for i, tt := range tests {
		span := ended[i]
		assert.Equal(t, tt.wantName, span.Name(), tt.path)
		assert.Equal(t, tt.wantCode, span.Status().Code, tt.path)
	}

	var userID int64
	for _, kv := range ended[0].Attributes() {
		if kv.Key == attribute.Key("user.id") {
			userID = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(9), userID)
}
