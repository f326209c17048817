package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/space"
)

type SpaceHandler struct {
	service SpaceServiceInterface
}

func NewSpaceHandler(s SpaceServiceInterface) *SpaceHandler {
	return &SpaceHandler{service: s}
}

type CreateSpaceRequest struct {
	Name             string  `json:"name" validate:"required,max=100" example:"A101 講義室"`
	Description      string  `json:"description"`
	Location         string  `json:"location" example:"本館1階"`
	Capacity         int     `json:"capacity" validate:"gte=0" example:"40"`
	MaxHours         int     `json:"max_hours" validate:"gte=0" example:"4"`
	RequiresApproval bool    `json:"requires_approval"`
	SecretariatID    *string `json:"secretariat_id"`
}

type UpdateSpaceRequest struct {
	Name             *string `json:"name" validate:"omitempty,max=100"`
	Description      *string `json:"description"`
	Location         *string `json:"location"`
	Capacity         *int    `json:"capacity" validate:"omitempty,gte=0"`
	MaxHours         *int    `json:"max_hours" validate:"omitempty,gte=0"`
	RequiresApproval *bool   `json:"requires_approval"`
	State            *string `json:"state" example:"maintenance"`
	SecretariatID    *string `json:"secretariat_id"`
}

type SpaceResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	Capacity         int       `json:"capacity"`
	MaxHours         int       `json:"max_hours"`
	State            string    `json:"state" example:"available"`
	RequiresApproval bool      `json:"requires_approval"`
	SecretariatID    *string   `json:"secretariat_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toSpaceResponse(s *space.Space) SpaceResponse {
	return SpaceResponse{
		ID: s.ID, Name: s.Name, Description: s.Description, Location: s.Location,
		Capacity: s.Capacity, MaxHours: s.MaxHours, State: string(s.State),
		RequiresApproval: s.RequiresApproval, SecretariatID: s.SecretariatID,
		CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

// Create godoc
// @Summary スペースを作成（管理者）
// @Tags spaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSpaceRequest true "スペース情報"
// @Success 201 {object} SpaceResponse
// @Failure 403 {object} api.ErrorResponse
// @Router /spaces [post]
func (h *SpaceHandler) Create(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req CreateSpaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateSpace(c.Request().Context(), a, application.CreateSpaceInput{
		Name: req.Name, Description: req.Description, Location: req.Location,
		Capacity: req.Capacity, MaxHours: req.MaxHours,
		RequiresApproval: req.RequiresApproval, SecretariatID: req.SecretariatID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSpaceResponse(s))
}

// GetByID godoc
// @Summary スペースを取得
// @Tags spaces
// @Produce json
// @Param id path string true "スペースID"
// @Success 200 {object} SpaceResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /spaces/{id} [get]
func (h *SpaceHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSpace(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSpaceResponse(s))
}

// List godoc
// @Summary スペース一覧を取得
// @Tags spaces
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} SpaceResponse
// @Router /spaces [get]
func (h *SpaceHandler) List(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}
	spaces, err := h.service.ListSpaces(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]SpaceResponse, len(spaces))
	for i, s := range spaces {
		resp[i] = toSpaceResponse(s)
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary スペースを更新（管理者）
// @Tags spaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "スペースID"
// @Param request body UpdateSpaceRequest true "変更内容"
// @Success 200 {object} SpaceResponse
// @Router /spaces/{id} [put]
func (h *SpaceHandler) Update(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req UpdateSpaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.UpdateSpace(c.Request().Context(), a, application.UpdateSpaceInput{
		ID: c.Param("id"), Name: req.Name, Description: req.Description, Location: req.Location,
		Capacity: req.Capacity, MaxHours: req.MaxHours, RequiresApproval: req.RequiresApproval,
		State: req.State, SecretariatID: req.SecretariatID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSpaceResponse(s))
}

// Delete godoc
// @Summary スペースを削除（管理者）
// @Description 今後の有効な予約があるスペースは削除できません
// @Tags spaces
// @Security BearerAuth
// @Param id path string true "スペースID"
// @Success 204
// @Failure 422 {object} api.ErrorResponse
// @Router /spaces/{id} [delete]
func (h *SpaceHandler) Delete(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteSpace(c.Request().Context(), a, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
