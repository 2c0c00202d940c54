package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(logger logrus.FieldLogger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger), Metrics())
	router.GET("/leads/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.GET("/broken", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	})
	return router
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	router := newTestRouter(logger)

	tests := []struct {
		name   string
		path   string
		status int
		level  logrus.Level
	}{
		{"Success", "/leads/abc", http.StatusOK, logrus.InfoLevel},
		{"Client error", "/missing", http.StatusNotFound, logrus.WarnLevel},
		{"Server error", "/broken", http.StatusInternalServerError, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.status, entry.Data["status"])
			assert.Equal(t, tt.path, entry.Data["path"])
			assert.NotEmpty(t, entry.Data["request_id"])
		})
	}
}

func TestRequestID(t *testing.T) {
	logger, _ := test.NewNullLogger()
	router := newTestRouter(logger)

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/leads/abc", nil)
		router.ServeHTTP(w, req)

		_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("Propagated", func(t *testing.T) {
		id := uuid.New().String()
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/leads/abc", nil)
		req.Header.Set("X-Request-ID", id)
		router.ServeHTTP(w, req)

		assert.Equal(t, id, w.Header().Get("X-Request-ID"))
	})
}
