package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-facility-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

// currentActor は認証ミドルウェアが設定した操作者を返す
func currentActor(c echo.Context) (actor.Actor, error) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		return actor.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
	}
	return a, nil
}

// queryInt は整数のクエリパラメータを読む。未指定なら 0
func queryInt(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" は整数で指定してください")
	}
	return n, nil
}

// WindowRequest は日付と時刻を分けて受け取る時間帯
type WindowRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02" example:"2025-05-01"`
	StartTime string `json:"start_time" validate:"required" example:"09:00"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02" example:"2025-05-01"`
	EndTime   string `json:"end_time" validate:"required" example:"11:00"`
}

func (w WindowRequest) toInput() application.WindowInput {
	return application.WindowInput{StartDate: w.StartDate, StartTime: w.StartTime, EndDate: w.EndDate, EndTime: w.EndTime}
}

type ResourceRequestItem struct {
	ResourceID string `json:"resource_id" validate:"required" example:"projector"`
	Quantity   int    `json:"quantity" validate:"gte=1" example:"1"`
	Notes      string `json:"notes" example:"HDMI ケーブルも必要"`
}

func toResourceInputs(items []ResourceRequestItem) []application.ResourceRequestInput {
	inputs := make([]application.ResourceRequestInput, len(items))
	for i, it := range items {
		inputs[i] = application.ResourceRequestInput{ResourceID: it.ResourceID, Quantity: it.Quantity, Notes: it.Notes}
	}
	return inputs
}

type CreateReservationRequest struct {
	SpaceID string `json:"space_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	WindowRequest
	Title             string                `json:"title" validate:"required,max=200" example:"ゼミ発表会"`
	Description       string                `json:"description"`
	Motive            string                `json:"motive"`
	Observations      string                `json:"observations"`
	ParticipantCount  int                   `json:"participant_count" validate:"gte=0" example:"25"`
	ParticipantEmails []string              `json:"participant_emails" validate:"omitempty,dive,email"`
	Resources         []ResourceRequestItem `json:"resources" validate:"omitempty,dive"`
}

type AvailabilityRequest struct {
	SpaceID string `json:"space_id" validate:"required"`
	WindowRequest
	ExcludeReservationID string `json:"exclude_reservation_id"`
}

// EditReservationRequest は予約編集の内容。省略した項目は変更しない
// 時間帯を変える場合は start_date〜end_time の4項目をすべて指定する
type EditReservationRequest struct {
	StartDate         *string  `json:"start_date"`
	StartTime         *string  `json:"start_time"`
	EndDate           *string  `json:"end_date"`
	EndTime           *string  `json:"end_time"`
	Title             *string  `json:"title" validate:"omitempty,max=200"`
	Description       *string  `json:"description"`
	Motive            *string  `json:"motive"`
	Observations      *string  `json:"observations"`
	ParticipantCount  *int     `json:"participant_count" validate:"omitempty,gte=0"`
	ParticipantEmails []string `json:"participant_emails" validate:"omitempty,dive,email"`
}

func (r EditReservationRequest) window() (*application.WindowInput, error) {
	parts := []*string{r.StartDate, r.StartTime, r.EndDate, r.EndTime}
	set := 0
	for _, p := range parts {
		if p != nil {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case len(parts):
		return &application.WindowInput{StartDate: *r.StartDate, StartTime: *r.StartTime, EndDate: *r.EndDate, EndTime: *r.EndTime}, nil
	}
	return nil, echo.NewHTTPError(http.StatusBadRequest, "時間帯を変更する場合は start_date, start_time, end_date, end_time をすべて指定してください")
}

type ReservationResponse struct {
	ID                string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Number            string     `json:"number" example:"RES-2025-001"`
	SpaceID           string     `json:"space_id"`
	RequesterID       string     `json:"requester_id" example:"user-123"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Motive            string     `json:"motive,omitempty"`
	Observations      string     `json:"observations,omitempty"`
	ParticipantCount  int        `json:"participant_count"`
	ParticipantEmails []string   `json:"participant_emails,omitempty"`
	StartDate         string     `json:"start_date" example:"2025-05-01"`
	StartTime         string     `json:"start_time" example:"09:00"`
	EndDate           string     `json:"end_date" example:"2025-05-01"`
	EndTime           string     `json:"end_time" example:"11:00"`
	Status            string     `json:"status" example:"confirmed"`
	RequiresApproval  bool       `json:"requires_approval"`
	ApprovedBy        *string    `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, Number: r.Number, SpaceID: r.SpaceID, RequesterID: r.RequesterID,
		Title: r.Title, Description: r.Description, Motive: r.Motive, Observations: r.Observations,
		ParticipantCount: r.ParticipantCount, ParticipantEmails: r.ParticipantEmails,
		StartDate: r.Window.StartDate(), StartTime: r.Window.StartClock(),
		EndDate: r.Window.EndDate(), EndTime: r.Window.EndClock(),
		Status: string(r.Status), RequiresApproval: r.RequiresApproval,
		ApprovedBy: r.ApprovedBy, ApprovedAt: r.ApprovedAt, DeletedAt: r.DeletedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservationResponses(rs []*reservation.Reservation) []ReservationResponse {
	resp := make([]ReservationResponse, len(rs))
	for i, r := range rs {
		resp[i] = toReservationResponse(r)
	}
	return resp
}

// ConflictResponse は空き確認で返す重なった予約。未認証でも返すため時間帯と状態だけを含める
type ConflictResponse struct {
	ID        string `json:"id"`
	Number    string `json:"number" example:"RES-2025-001"`
	StartDate string `json:"start_date" example:"2025-05-01"`
	StartTime string `json:"start_time" example:"09:00"`
	EndDate   string `json:"end_date" example:"2025-05-01"`
	EndTime   string `json:"end_time" example:"11:00"`
	Status    string `json:"status" example:"pending"`
}

func toConflictResponses(rs []*reservation.Reservation) []ConflictResponse {
	resp := make([]ConflictResponse, len(rs))
	for i, r := range rs {
		resp[i] = ConflictResponse{
			ID: r.ID, Number: r.Number,
			StartDate: r.Window.StartDate(), StartTime: r.Window.StartClock(),
			EndDate: r.Window.EndDate(), EndTime: r.Window.EndClock(),
			Status: string(r.Status),
		}
	}
	return resp
}

type AvailabilityResponse struct {
	Available bool               `json:"available"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

type EditResponse struct {
	Reservation ReservationResponse       `json:"reservation"`
	Changes     []reservation.FieldChange `json:"changes"`
}

type HistoryResponse struct {
	ID         string          `json:"id"`
	ChangeType string          `json:"change_type" example:"edit"`
	Snapshot   json.RawMessage `json:"snapshot" swaggertype:"object"`
	ActorID    string          `json:"actor_id"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toHistoryResponse(e *history.Entry) HistoryResponse {
	return HistoryResponse{
		ID: e.ID, ChangeType: string(e.ChangeType), Snapshot: e.Snapshot,
		ActorID: e.ActorID, Note: e.Note, CreatedAt: e.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 承認不要のスペースは即確定、承認制のスペースは承認待ちになります
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 401 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "時間帯が重複"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReservation(c.Request().Context(), application.CreateReservationInput{
		Actor:   a,
		SpaceID: req.SpaceID,
		Window:  req.WindowRequest.toInput(),
		Details: reservation.Details{
			Title: req.Title, Description: req.Description, Motive: req.Motive, Observations: req.Observations,
			ParticipantCount: req.ParticipantCount, ParticipantEmails: req.ParticipantEmails,
		},
		Resources: toResourceInputs(req.Resources),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// CheckAvailability godoc
// @Summary 空き状況を確認
// @Description 指定した時間帯にスペースが空いているかと、重なる予約を返します
// @Tags reservations
// @Accept json
// @Produce json
// @Param request body AvailabilityRequest true "確認する時間帯"
// @Success 200 {object} AvailabilityResponse
// @Failure 400 {object} api.ErrorResponse
// @Router /reservations/availability [post]
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	av, err := h.service.CheckAvailability(c.Request().Context(), req.SpaceID, req.WindowRequest.toInput(), req.ExcludeReservationID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		Available: av.Available,
		Conflicts: toConflictResponses(av.Conflicts),
	})
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	r, err := h.service.GetReservation(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// List godoc
// @Summary 予約一覧を取得
// @Description 管理者以外は自分の予約のみ取得できます
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param space_id query string false "スペースID"
// @Param status query string false "状態" Enums(pending, confirmed, rejected, cancelled)
// @Param mine query bool false "自分の予約のみ"
// @Param include_deleted query bool false "論理削除済みも含める（管理者のみ）"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReservationResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}
	mine, _ := strconv.ParseBool(c.QueryParam("mine"))
	includeDeleted, _ := strconv.ParseBool(c.QueryParam("include_deleted"))

	rs, err := h.service.ListReservations(c.Request().Context(), a, application.ListReservationsInput{
		SpaceID:        c.QueryParam("space_id"),
		Status:         c.QueryParam("status"),
		Mine:           mine,
		IncludeDeleted: includeDeleted,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponses(rs))
}

// Edit godoc
// @Summary 予約を編集
// @Description 確定済みの予約を作成者が編集します。変更前の状態は履歴に残ります
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Param request body EditReservationRequest true "変更内容"
// @Success 200 {object} EditResponse
// @Failure 409 {object} api.ErrorResponse "時間帯が重複"
// @Failure 422 {object} api.ErrorResponse "編集できない状態"
// @Router /reservations/{id} [put]
func (h *ReservationHandler) Edit(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	var req EditReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	w, err := req.window()
	if err != nil {
		return err
	}
	r, changes, err := h.service.EditReservation(c.Request().Context(), application.EditReservationInput{
		Actor:             a,
		ID:                c.Param("id"),
		Window:            w,
		Title:             req.Title,
		Description:       req.Description,
		Motive:            req.Motive,
		Observations:      req.Observations,
		ParticipantCount:  req.ParticipantCount,
		ParticipantEmails: req.ParticipantEmails,
	})
	if err != nil {
		return err
	}
	if changes == nil {
		changes = []reservation.FieldChange{}
	}
	return c.JSON(http.StatusOK, EditResponse{Reservation: toReservationResponse(r), Changes: changes})
}

// Delete godoc
// @Summary 予約を論理削除
// @Description 開始日の前日までに作成者が削除できます
// @Tags reservations
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 204
// @Failure 422 {object} api.ErrorResponse
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Delete(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteReservation(c.Request().Context(), a, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Approve godoc
// @Summary 予約を承認（管理者）
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 422 {object} api.ErrorResponse
// @Router /reservations/{id}/approve [put]
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.transition(c, h.service.ApproveReservation)
}

// Reject godoc
// @Summary 予約を却下（管理者）
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Router /reservations/{id}/reject [put]
func (h *ReservationHandler) Reject(c echo.Context) error {
	return h.transition(c, h.service.RejectReservation)
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 作成者または管理者が承認待ち・確定済みの予約をキャンセルします
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Router /reservations/{id}/cancel [put]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.service.CancelReservation)
}

type transitionFunc func(ctx context.Context, a actor.Actor, id string) (*reservation.Reservation, error)

func (h *ReservationHandler) transition(c echo.Context, fn transitionFunc) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	r, err := fn(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// History godoc
// @Summary 予約の変更履歴
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {array} HistoryResponse
// @Router /reservations/{id}/history [get]
func (h *ReservationHandler) History(c echo.Context) error {
	a, err := currentActor(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.Request().Context(), a, c.Param("id"))
	if err != nil {
		return err
	}
	resp := make([]HistoryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toHistoryResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}
