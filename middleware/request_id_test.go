package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnTengye/lexiguide/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var fromGin, fromContext string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/api/contract", func(c *gin.Context) {
		fromGin = GetRequestID(c)
		fromContext, _ = c.Request.Context().Value(logger.RequestIDKey).(string)
		c.Status(http.StatusOK)
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contract", nil))

		responseID := w.Header().Get(RequestIDHeader)
		if _, err := uuid.Parse(responseID); err != nil {
			t.Errorf("Expected generated UUID request ID, got %q", responseID)
		}
		if fromGin != responseID || fromContext != responseID {
			t.Errorf("Request ID mismatch: header %q, gin %q, context %q", responseID, fromGin, fromContext)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/contract", nil)
		req.Header.Set(RequestIDHeader, "existing-request-id-123")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if got := w.Header().Get(RequestIDHeader); got != "existing-request-id-123" {
			t.Errorf("Expected propagated request ID, got %q", got)
		}
		if fromContext != "existing-request-id-123" {
			t.Errorf("Expected request ID in context, got %q", fromContext)
		}
	})
}

func TestGetRequestIDEmpty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if requestID := GetRequestID(c); requestID != "" {
		t.Errorf("Expected empty string, got '%s'", requestID)
	}
}
