package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
)

const actorContextKey = "actor"

// Claims はアクセストークンのクレーム
// 発行は認証基盤が行い、このサービスは検証だけを行う
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity は Bearer トークンを検証し、操作者をコンテキストに設定するミドルウェア
func Identity(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			var claims Claims
			tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !tok.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "トークンが無効です")
			}
			role, err := actor.ParseRole(claims.Role)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "トークンのロールが不正です")
			}

			SetActor(c, actor.Actor{ID: claims.Subject, Role: role})
			return next(c)
		}
	}
}

// SetActor は操作者をコンテキストに設定する
func SetActor(c echo.Context, a actor.Actor) {
	c.Set(actorContextKey, a)
}

// ActorFrom はコンテキストから操作者を取り出す
func ActorFrom(c echo.Context) (actor.Actor, bool) {
	a, ok := c.Get(actorContextKey).(actor.Actor)
	return a, ok
}

// IssueToken は HS256 で署名したアクセストークンを作成する（開発・テスト用）
func IssueToken(secret string, a actor.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(a.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
