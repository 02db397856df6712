package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(Recovery())
	router.GET("/api/contract/report", func(c *gin.Context) {
		panic("nil report")
	})
	router.GET("/api/contract", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "idle"})
	})

	t.Run("panic recovery", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/contract/report", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if body["error"] != "Internal server error" {
			t.Errorf("Unexpected error message %q", body["error"])
		}
		if body["request_id"] != "req-42" {
			t.Errorf("Expected request_id req-42, got %q", body["request_id"])
		}
	})

	t.Run("normal request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/contract", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})
}
