package handler

import (
	"github.com/labstack/echo/v4"
)

// Handlers はルーティングに登録するハンドラー一式
type Handlers struct {
	Health       *HealthHandler
	Reservations *ReservationHandler
	Resources    *ResourceHandler
	Spaces       *SpaceHandler
}

// RegisterRoutes はAPIのルートを登録する
// 認証が必要なルートには auth を個別に適用する
func RegisterRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Check)
	e.GET("/health/ready", h.Health.Ready)

	v1 := e.Group("/api/v1")

	// Spaces
	v1.GET("/spaces", h.Spaces.List)
	v1.GET("/spaces/:id", h.Spaces.GetByID)
	v1.GET("/spaces/:id/resources", h.Resources.ListAssignments)
	v1.POST("/spaces", h.Spaces.Create, auth)
	v1.PUT("/spaces/:id", h.Spaces.Update, auth)
	v1.DELETE("/spaces/:id", h.Spaces.Delete, auth)
	v1.PUT("/spaces/:id/resources/:resource_id", h.Resources.Assign, auth)

	// Reservations
	v1.POST("/reservations/availability", h.Reservations.CheckAvailability)
	v1.POST("/reservations", h.Reservations.Create, auth)
	v1.GET("/reservations", h.Reservations.List, auth)
	v1.GET("/reservations/:id", h.Reservations.GetByID, auth)
	v1.PUT("/reservations/:id", h.Reservations.Edit, auth)
	v1.DELETE("/reservations/:id", h.Reservations.Delete, auth)
	v1.PUT("/reservations/:id/approve", h.Reservations.Approve, auth)
	v1.PUT("/reservations/:id/reject", h.Reservations.Reject, auth)
	v1.PUT("/reservations/:id/cancel", h.Reservations.Cancel, auth)
	v1.GET("/reservations/:id/history", h.Reservations.History, auth)

	// Resources
	v1.GET("/reservations/:id/resources", h.Resources.List, auth)
	v1.POST("/reservations/:id/resources", h.Resources.Request, auth)
	v1.PUT("/reservations/:id/resources/:resource_id/confirm", h.Resources.Confirm, auth)
	v1.DELETE("/reservations/:id/resources/:resource_id", h.Resources.Remove, auth)
}
