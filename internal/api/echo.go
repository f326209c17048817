package api

import "github.com/labstack/echo/v4"

// NewEcho はバリデーターとエラーハンドラーを設定した Echo を返す
// ミドルウェアとルートは呼び出し側で登録する
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = CustomHTTPErrorHandler
	return e
}
