package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/storefront/internal/config"
)

func serve(mw echo.MiddlewareFunc) int {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	return rec.Code
}

func TestTokenBucket_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RateLimitConfig
		rdb  redis.Scripter
	}{
		{name: "disabled", cfg: config.RateLimitConfig{Enabled: false, Capacity: 1}},
		{name: "no redis", cfg: config.RateLimitConfig{Enabled: true, Capacity: 1}},
		{
			name: "redis down fails open",
			cfg:  config.RateLimitConfig{Enabled: true, Capacity: 1, RefillInterval: time.Second, Prefix: "rl"},
			rdb:  redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := TokenBucket(tt.cfg, tt.rdb)
			assert.Equal(t, http.StatusOK, serve(mw))
			assert.Equal(t, http.StatusOK, serve(mw))
		})
	}
}
