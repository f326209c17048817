package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-facility-reservation/internal/domain/resource"
)

type ResourceHandler struct {
	service ResourceServiceInterface
}

func NewResourceHandler(s ResourceServiceInterface) *ResourceHandler {
	return &ResourceHandler{service: s}
}

type RequestResourcesRequest struct {
	Resources []ResourceRequestItem `json:"resources" validate:"required,min=1,dive"`
}

type ConfirmResourceRequest struct {
	Quantity int `json:"quantity" validate:"gte=0" example:"2"`
}

type AssignResourceRequest struct {
	MaxQuantity int `json:"max_quantity" validate:"gte=1" example:"4"`
}

type ResourceRequestResponse struct {
	ReservationID     string    `json:"reservation_id"`
	ResourceID        string    `json:"resource_id"`
	RequestedQuantity int       `json:"requested_quantity"`
	ConfirmedQuantity *int      `json:"confirmed_quantity"`
	Notes             string    `json:"notes,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toResourceRequestResponse(r *resource.Request) ResourceRequestResponse {
	return ResourceRequestResponse{
		ReservationID: r.ReservationID, ResourceID: r.ResourceID,
		RequestedQuantity: r.RequestedQuantity, ConfirmedQuantity: r.ConfirmedQuantity,
		Notes: r.Notes, UpdatedAt: r.UpdatedAt,
	}
}

func toResourceRequestResponses(rs []*resource.Request) []ResourceRequestResponse {
	resp := make([]ResourceRequestResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResourceRequestResponse(r)
	}
	return resp
}

type AssignmentResponse struct {
	SpaceID     string `json:"space_id"`
	ResourceID  string `json:"resource_id"`
	MaxQuantity int    `json:"max_quantity"`
}

func toAssignmentResponse(a *resource.Assignment) AssignmentResponse {
	return AssignmentResponse{SpaceID: a.SpaceID, ResourceID: a.ResourceID, MaxQuantity: a.MaxQuantity}
}

// Request godoc
// @Summary 予約に備品を申請
// @Description 同じ備品を再申請した場合は申請数を上書きし、確定数は未確定に戻ります
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Param request body RequestResourcesRequest true "申請内容"
// @Success 201 {array} ResourceRequestResponse
// @Failure 400 {object} api.ErrorResponse "上限超過など"
// @Router /reservations/{id}/resources [post]
func (h *ResourceHandler) Request(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req RequestResourcesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	rs, err := h.service.RequestResources(c.Request().Context(), a, c.Param("id"), toResourceInputs(req.Resources))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toResourceRequestResponses(rs))
}

// List godoc
// @Summary 予約の備品申請一覧
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {array} ResourceRequestResponse
// @Router /reservations/{id}/resources [get]
func (h *ResourceHandler) List(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	rs, err := h.service.ListResources(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toResourceRequestResponses(rs))
}

// Confirm godoc
// @Summary 備品の確定数を設定（管理者）
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Param resource_id path string true "備品ID"
// @Param request body ConfirmResourceRequest true "確定数"
// @Success 200 {object} ResourceRequestResponse
// @Router /reservations/{id}/resources/{resource_id}/confirm [put]
func (h *ResourceHandler) Confirm(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req ConfirmResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.ConfirmResource(c.Request().Context(), a, c.Param("id"), c.Param("resource_id"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toResourceRequestResponse(r))
}

// Remove godoc
// @Summary 備品申請を取り消す
// @Tags resources
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Param resource_id path string true "備品ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id}/resources/{resource_id} [delete]
func (h *ResourceHandler) Remove(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveResource(c.Request().Context(), a, c.Param("id"), c.Param("resource_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign godoc
// @Summary スペースに備品を割り当てる（管理者）
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "スペースID"
// @Param resource_id path string true "備品ID"
// @Param request body AssignResourceRequest true "上限数"
// @Success 200 {object} AssignmentResponse
// @Router /spaces/{id}/resources/{resource_id} [put]
func (h *ResourceHandler) Assign(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req AssignResourceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	as, err := h.service.AssignResource(c.Request().Context(), a, c.Param("id"), c.Param("resource_id"), req.MaxQuantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAssignmentResponse(as))
}

// ListAssignments godoc
// @Summary スペースで利用できる備品
// @Tags resources
// @Produce json
// @Param id path string true "スペースID"
// @Success 200 {array} AssignmentResponse
// @Router /spaces/{id}/resources [get]
func (h *ResourceHandler) ListAssignments(c echo.Context) error {
	as, err := h.service.ListAssignments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	resp := make([]AssignmentResponse, len(as))
	for i, a := range as {
		resp[i] = toAssignmentResponse(a)
	}
	return c.JSON(http.StatusOK, resp)
}
