package middleware

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

const requestIDKey = "request_id"

// RequestIDMiddleware は X-Request-ID を引き継ぐか採番し、レスポンスとコンテキストに載せる
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.Set(requestIDKey, id)
			return next(c)
		}
	}
}

// RequestIDFrom は RequestIDMiddleware が設定したIDを返す
func RequestIDFrom(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// RequestLogger はリクエストごとに1行の構造化ログを出力する
// ヘルスチェックとメトリクス取得は Debug に落とす
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}

			fields := []zap.Field{
				zap.String("request_id", RequestIDFrom(c)),
				zap.String("method", req.Method),
				zap.String("route", routeOf(c)),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Int64("size", c.Response().Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			if a, ok := ActorFrom(c); ok {
				fields = append(fields, zap.String("actor_id", a.ID), zap.String("role", string(a.Role)))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			switch {
			case status >= 500:
				logger.Error("server error", fields...)
			case status >= 400:
				logger.Warn("client error", fields...)
			case isProbe(req.URL.Path):
				logger.Debug("request completed", fields...)
			default:
				logger.Info("request completed", fields...)
			}
			return err
		}
	}
}

func isProbe(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}

// routeOf はルート定義のパスを返す。一致するルートがない場合は "unmatched"
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}
