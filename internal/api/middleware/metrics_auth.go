package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/config"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

const metricsRealm = "facility-reservation metrics"

// MetricsBasicAuth は /metrics をスクレイパー用の Basic 認証で保護する
// METRICS_USER と METRICS_PASSWORD が未設定なら素通しする
func MetricsBasicAuth(cfg config.MetricsConfig) echo.MiddlewareFunc {
	if !cfg.IsEnabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	user, pass := []byte(cfg.User), []byte(cfg.Password)
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: metricsRealm,
		Validator: func(u, p string, c echo.Context) (bool, error) {
			ok := subtle.ConstantTimeCompare([]byte(u), user)&subtle.ConstantTimeCompare([]byte(p), pass) == 1
			if !ok {
				logger.Warn("メトリクスの認証に失敗しました", zap.String("remote_ip", c.RealIP()))
			}
			return ok, nil
		},
	})
}
