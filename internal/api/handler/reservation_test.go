package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-facility-reservation/internal/api"
	"github.com/sanosuguru/go-facility-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-facility-reservation/internal/application"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/actor"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/history"
	"github.com/sanosuguru/go-facility-reservation/internal/domain/reservation"
)

var (
	admin = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	user  = actor.Actor{ID: "user-1", Role: actor.RoleUser}
)

// newRequestContext はテスト用のコンテキストを作成する。a が nil なら未認証
func newRequestContext(e *echo.Echo, method, target, body string, a *actor.Actor) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if a != nil {
		middleware.SetActor(c, *a)
	}
	return c, rec
}

// respond はハンドラーのエラーをエラーハンドラーに通してステータスを確定させる
func respond(e *echo.Echo, c echo.Context, err error) {
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func sampleReservation(t *testing.T, status reservation.Status) *reservation.Reservation {
	t.Helper()
	w, err := reservation.NewWindow("2025-05-01", "09:00", "2025-05-01", "11:00", time.UTC)
	require.NoError(t, err)
	now := time.Date(2025, 4, 20, 1, 0, 0, 0, time.UTC)
	return &reservation.Reservation{
		ID:          "res-123",
		Number:      "RES-2025-001",
		SpaceID:     "space-1",
		RequesterID: user.ID,
		Title:       "ゼミ発表会",
		Window:      w,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestReservationHandler_Create(t *testing.T) {
	e := api.NewEcho()

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, mock.MatchedBy(func(in application.CreateReservationInput) bool {
			return in.Actor == user &&
				in.SpaceID == "space-1" &&
				in.Window == application.WindowInput{StartDate: "2025-05-01", StartTime: "09:00", EndDate: "2025-05-01", EndTime: "11:00"} &&
				in.Details.Title == "ゼミ発表会" &&
				in.Details.ParticipantCount == 25 &&
				len(in.Resources) == 1 && in.Resources[0].ResourceID == "projector" && in.Resources[0].Quantity == 1
		})).Return(sampleReservation(t, reservation.StatusConfirmed), nil)

		handler := NewReservationHandler(mockService)
		body := `{
			"space_id": "space-1",
			"start_date": "2025-05-01", "start_time": "09:00",
			"end_date": "2025-05-01", "end_time": "11:00",
			"title": "ゼミ発表会",
			"participant_count": 25,
			"participant_emails": ["a@uni.example"],
			"resources": [{"resource_id": "projector", "quantity": 1}]
		}`
		c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations", body, &user)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp ReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "RES-2025-001", resp.Number)
		assert.Equal(t, "confirmed", resp.Status)
		assert.Equal(t, "09:00", resp.StartTime)
		assert.Equal(t, "11:00", resp.EndTime)
		mockService.AssertExpectations(t)
	})

	t.Run("未認証の場合401", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)
		c, _ := newRequestContext(e, http.MethodPost, "/api/v1/reservations", `{}`, nil)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("入力検証エラーは400でサービスを呼ばない", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)
		body := `{"space_id": "space-1", "start_date": "2025/05/01", "start_time": "09:00", "end_date": "2025-05-01", "end_time": "11:00"}`
		c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations", body, &user)

		respond(e, c, handler.Create(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "title")
		mockService.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("不正なJSONは400", func(t *testing.T) {
		handler := NewReservationHandler(new(MockReservationService))
		c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations", "invalid", &user)

		respond(e, c, handler.Create(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("時間帯の重複は409", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CreateReservation", mock.Anything, mock.Anything).Return(nil, reservation.ErrTimeConflict)
		handler := NewReservationHandler(mockService)
		body := `{"space_id": "space-1", "start_date": "2025-05-01", "start_time": "09:00", "end_date": "2025-05-01", "end_time": "11:00", "title": "x"}`
		c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations", body, &user)

		respond(e, c, handler.Create(c))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), `"kind":"CONFLICT"`)
	})
}

func TestReservationHandler_CheckAvailability(t *testing.T) {
	e := api.NewEcho()
	mockService := new(MockReservationService)
	window := application.WindowInput{StartDate: "2025-05-01", StartTime: "10:00", EndDate: "2025-05-01", EndTime: "12:00"}
	conflict := sampleReservation(t, reservation.StatusPending)
	mockService.On("CheckAvailability", mock.Anything, "space-1", window, "res-9").
		Return(reservation.Availability{Available: false, Conflicts: []*reservation.Reservation{conflict}}, nil)

	handler := NewReservationHandler(mockService)
	body := `{"space_id": "space-1", "start_date": "2025-05-01", "start_time": "10:00", "end_date": "2025-05-01", "end_time": "12:00", "exclude_reservation_id": "res-9"}`
	c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations/availability", body, nil)

	err := handler.CheckAvailability(c)

	require.NoError(t, err)
	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	require.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "res-123", resp.Conflicts[0].ID)
	assert.Equal(t, "RES-2025-001", resp.Conflicts[0].Number)
	assert.Equal(t, "09:00", resp.Conflicts[0].StartTime)
	assert.Equal(t, "pending", resp.Conflicts[0].Status)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_CheckAvailability_HidesPrivateFields(t *testing.T) {
	e := api.NewEcho()
	mockService := new(MockReservationService)
	conflict := sampleReservation(t, reservation.StatusConfirmed)
	conflict.Description = "非公開のメモ"
	conflict.Motive = "学内審査"
	conflict.ParticipantEmails = []string{"alice@uni.example"}
	mockService.On("CheckAvailability", mock.Anything, "space-1", mock.Anything, "").
		Return(reservation.Availability{Available: false, Conflicts: []*reservation.Reservation{conflict}}, nil)

	handler := NewReservationHandler(mockService)
	body := `{"space_id": "space-1", "start_date": "2025-05-01", "start_time": "10:00", "end_date": "2025-05-01", "end_time": "12:00"}`
	c, rec := newRequestContext(e, http.MethodPost, "/api/v1/reservations/availability", body, nil)

	require.NoError(t, handler.CheckAvailability(c))

	raw := rec.Body.String()
	assert.NotContains(t, raw, "alice@uni.example")
	assert.NotContains(t, raw, "participant_emails")
	assert.NotContains(t, raw, "非公開のメモ")
	assert.NotContains(t, raw, "requester_id")
	assert.NotContains(t, raw, user.ID)
	assert.Contains(t, raw, `"id":"res-123"`)
}

func TestReservationHandler_GetByID(t *testing.T) {
	e := api.NewEcho()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"正常に取得できる", nil, http.StatusOK},
		{"存在しない場合404", reservation.ErrReservationNotFound, http.StatusNotFound},
		{"他人の予約は403", reservation.ErrNotOwner, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReservationService)
			if tt.err != nil {
				mockService.On("GetReservation", mock.Anything, user, "res-123").Return(nil, tt.err)
			} else {
				mockService.On("GetReservation", mock.Anything, user, "res-123").Return(sampleReservation(t, reservation.StatusConfirmed), nil)
			}
			handler := NewReservationHandler(mockService)
			c, rec := newRequestContext(e, http.MethodGet, "/api/v1/reservations/res-123", "", &user)
			c.SetParamNames("id")
			c.SetParamValues("res-123")

			respond(e, c, handler.GetByID(c))

			assert.Equal(t, tt.wantCode, rec.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestReservationHandler_List(t *testing.T) {
	e := api.NewEcho()

	t.Run("クエリを条件に変換する", func(t *testing.T) {
		mockService := new(MockReservationService)
		want := application.ListReservationsInput{
			SpaceID: "space-1", Status: "pending", Mine: true, IncludeDeleted: true, Limit: 10, Offset: 20,
		}
		mockService.On("ListReservations", mock.Anything, admin, want).
			Return([]*reservation.Reservation{sampleReservation(t, reservation.StatusPending)}, nil)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodGet,
			"/api/v1/reservations?space_id=space-1&status=pending&mine=true&include_deleted=true&limit=10&offset=20", "", &admin)

		err := handler.List(c)

		require.NoError(t, err)
		var resp []ReservationResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)
		mockService.AssertExpectations(t)
	})

	t.Run("整数でない limit は400", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodGet, "/api/v1/reservations?limit=ten", "", &user)

		respond(e, c, handler.List(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "ListReservations", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("不正な状態は400", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ListReservations", mock.Anything, user, mock.Anything).Return(nil, reservation.ErrInvalidStatus)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodGet, "/api/v1/reservations?status=done", "", &user)

		respond(e, c, handler.List(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReservationHandler_Edit(t *testing.T) {
	e := api.NewEcho()

	t.Run("時間帯と件名を変更する", func(t *testing.T) {
		mockService := new(MockReservationService)
		updated := sampleReservation(t, reservation.StatusConfirmed)
		changes := []reservation.FieldChange{
			{Field: "start_time", Before: "09:00", After: "13:00"},
			{Field: "title", Before: "ゼミ発表会", After: "ゼミ発表会（変更）"},
		}
		mockService.On("EditReservation", mock.Anything, mock.MatchedBy(func(in application.EditReservationInput) bool {
			return in.Actor == user && in.ID == "res-123" &&
				in.Window != nil && in.Window.StartTime == "13:00" &&
				in.Title != nil && *in.Title == "ゼミ発表会（変更）" &&
				in.Description == nil
		})).Return(updated, changes, nil)
		handler := NewReservationHandler(mockService)
		body := `{"start_date": "2025-05-01", "start_time": "13:00", "end_date": "2025-05-01", "end_time": "15:00", "title": "ゼミ発表会（変更）"}`
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123", body, &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.Edit(c)

		require.NoError(t, err)
		var resp EditResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, changes, resp.Changes)
		mockService.AssertExpectations(t)
	})

	t.Run("変更がなければ空の配列を返す", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("EditReservation", mock.Anything, mock.Anything).Return(sampleReservation(t, reservation.StatusConfirmed), nil, nil)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123", `{}`, &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		require.NoError(t, handler.Edit(c))

		assert.Contains(t, rec.Body.String(), `"changes":[]`)
	})

	t.Run("時間帯の一部だけの指定は400", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123", `{"start_time": "13:00"}`, &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		respond(e, c, handler.Edit(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "EditReservation", mock.Anything, mock.Anything)
	})

	t.Run("承認待ちの予約は422", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("EditReservation", mock.Anything, mock.Anything).Return(nil, nil, reservation.ErrReservationNotConfirmed)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123", `{"title": "x"}`, &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		respond(e, c, handler.Edit(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestReservationHandler_Delete(t *testing.T) {
	e := api.NewEcho()
	mockService := new(MockReservationService)
	mockService.On("DeleteReservation", mock.Anything, user, "res-123").Return(nil)
	handler := NewReservationHandler(mockService)
	c, rec := newRequestContext(e, http.MethodDelete, "/api/v1/reservations/res-123", "", &user)
	c.SetParamNames("id")
	c.SetParamValues("res-123")

	require.NoError(t, handler.Delete(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_Transitions(t *testing.T) {
	e := api.NewEcho()

	t.Run("管理者は承認できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ApproveReservation", mock.Anything, admin, "res-123").Return(sampleReservation(t, reservation.StatusConfirmed), nil)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123/approve", "", &admin)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		require.NoError(t, handler.Approve(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)
	})

	t.Run("一般ユーザーの承認は403", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("ApproveReservation", mock.Anything, user, "res-123").Return(nil, reservation.ErrAdminOnly)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123/approve", "", &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		respond(e, c, handler.Approve(c))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("確定済みの却下は422", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("RejectReservation", mock.Anything, admin, "res-123").Return(nil, reservation.ErrReservationNotPending)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123/reject", "", &admin)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		respond(e, c, handler.Reject(c))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("作成者はキャンセルできる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CancelReservation", mock.Anything, user, "res-123").Return(sampleReservation(t, reservation.StatusCancelled), nil)
		handler := NewReservationHandler(mockService)
		c, rec := newRequestContext(e, http.MethodPut, "/api/v1/reservations/res-123/cancel", "", &user)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		require.NoError(t, handler.Cancel(c))

		assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)
	})
}

func TestReservationHandler_History(t *testing.T) {
	e := api.NewEcho()
	mockService := new(MockReservationService)
	entries := []*history.Entry{{
		ID:            "h-1",
		ReservationID: "res-123",
		Snapshot:      json.RawMessage(`{"title":"ゼミ発表会"}`),
		ChangeType:    history.ChangeEdit,
		ActorID:       user.ID,
		CreatedAt:     time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC),
	}}
	mockService.On("ListHistory", mock.Anything, user, "res-123").Return(entries, nil)
	handler := NewReservationHandler(mockService)
	c, rec := newRequestContext(e, http.MethodGet, "/api/v1/reservations/res-123/history", "", &user)
	c.SetParamNames("id")
	c.SetParamValues("res-123")

	require.NoError(t, handler.History(c))

	var resp []HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "edit", resp[0].ChangeType)
	assert.JSONEq(t, `{"title":"ゼミ発表会"}`, string(resp[0].Snapshot))
}
