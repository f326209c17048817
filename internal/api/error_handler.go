package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-facility-reservation/internal/pkg/apperr"
	"github.com/sanosuguru/go-facility-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
	Code  int         `json:"code"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// ドメインエラーは種別からステータスコードを決め、内部エラーの詳細は返さない
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := toErrorResponse(err)

	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(resp.Code)
	} else {
		err = c.JSON(resp.Code, resp)
	}
	if err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func toErrorResponse(err error) ErrorResponse {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		return ErrorResponse{Error: message, Kind: kindForStatus(he.Code), Code: he.Code}
	}

	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		return ErrorResponse{Error: "内部サーバーエラー", Kind: kind, Code: http.StatusInternalServerError}
	}
	return ErrorResponse{Error: err.Error(), Kind: kind, Code: apperr.HTTPStatus(err)}
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case http.StatusBadRequest:
		return apperr.KindInvalidInput
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apperr.KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.KindForbidden
	case http.StatusConflict:
		return apperr.KindConflict
	case http.StatusUnprocessableEntity:
		return apperr.KindInvalidState
	}
	return apperr.KindInternal
}
