package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/handler"
	"github.com/noah-isme/unibus-go-api/internal/service"
)

type mockShiftService struct {
	openResponse  dto.ShiftResponse
	openErr       error
	closeResponse dto.ShiftResponse
	closeErr      error
	active        *dto.ShiftResponse
	roster        dto.ShiftRosterResponse
	rosterErr     error
	list          []dto.ShiftResponse

	lastCloseShiftID      string
	lastCloseSupervisorID string
}

func (m *mockShiftService) Open(_ context.Context, _ dto.OpenShiftRequest) (dto.ShiftResponse, error) {
	return m.openResponse, m.openErr
}

func (m *mockShiftService) Close(_ context.Context, shiftID, supervisorID string) (dto.ShiftResponse, error) {
	m.lastCloseShiftID = shiftID
	m.lastCloseSupervisorID = supervisorID
	return m.closeResponse, m.closeErr
}

func (m *mockShiftService) Active(_ context.Context, _ string) (*dto.ShiftResponse, error) {
	return m.active, nil
}

func (m *mockShiftService) Roster(_ context.Context, _ string) (dto.ShiftRosterResponse, error) {
	return m.roster, m.rosterErr
}

func (m *mockShiftService) List(_ context.Context, _, _ string) ([]dto.ShiftResponse, error) {
	return m.list, nil
}

type mockReportService struct {
	liveCount    dto.LiveCountResponse
	liveCountErr error
	records      dto.RecordListResponse
	recordsCalls int
	grouped      dto.GroupedRecordsResponse
	groupedCalls int
	lastGrouped  struct {
		supervisorID string
		date         string
	}
	shifts []dto.ShiftResponse
}

func (m *mockReportService) LiveCount(_ context.Context, _ string, _ int) (dto.LiveCountResponse, error) {
	return m.liveCount, m.liveCountErr
}

func (m *mockReportService) ListRecords(_ context.Context, _ dto.RecordListRequest) (dto.RecordListResponse, error) {
	m.recordsCalls++
	return m.records, nil
}

func (m *mockReportService) ListRecordsBySupervisor(_ context.Context, supervisorID, date string, _ int) (dto.GroupedRecordsResponse, error) {
	m.groupedCalls++
	m.lastGrouped.supervisorID = supervisorID
	m.lastGrouped.date = date
	return m.grouped, nil
}

func (m *mockReportService) ActiveShifts(_ context.Context, _ string) ([]dto.ShiftResponse, error) {
	return m.shifts, nil
}

func newShiftApp(shifts *mockShiftService, reports *mockReportService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/shifts")
	handler.NewShiftHandler(shifts, reports, zerolog.New(io.Discard)).Register(group)
	return app
}

func TestShiftHandlerOpen(t *testing.T) {
	svc := &mockShiftService{openResponse: dto.ShiftResponse{ID: "shift-1", Status: "active"}}
	app := newShiftApp(svc, &mockReportService{})

	resp := performJSON(t, app, http.MethodPost, "/api/shifts", dto.OpenShiftRequest{
		SupervisorID:   "S1",
		SupervisorName: "Sara",
		Location:       "Main Campus",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool              `json:"success"`
		Data    dto.ShiftResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, "shift-1", response.Data.ID)
}

func TestShiftHandlerOpenConflict(t *testing.T) {
	svc := &mockShiftService{openErr: service.ErrShiftAlreadyOpen}
	app := newShiftApp(svc, &mockReportService{})

	resp := performJSON(t, app, http.MethodPost, "/api/shifts", dto.OpenShiftRequest{
		SupervisorID:   "S1",
		SupervisorName: "Sara",
		Location:       "Main Campus",
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestShiftHandlerClose(t *testing.T) {
	svc := &mockShiftService{closeResponse: dto.ShiftResponse{ID: "shift-1", Status: "closed"}}
	app := newShiftApp(svc, &mockReportService{})

	resp := performJSON(t, app, http.MethodPut, "/api/shifts/shift-1/close", map[string]string{
		"supervisorId": "S1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "shift-1", svc.lastCloseShiftID)
	require.Equal(t, "S1", svc.lastCloseSupervisorID)
}

func TestShiftHandlerCloseStatuses(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrShiftNotFound, statusCode: fiber.StatusNotFound},
		{name: "already closed", err: service.ErrShiftClosed, statusCode: fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockShiftService{closeErr: tc.err}
			app := newShiftApp(svc, &mockReportService{})

			resp := performJSON(t, app, http.MethodPut, "/api/shifts/shift-1/close", map[string]string{
				"supervisorId": "S1",
			})
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestShiftHandlerActive(t *testing.T) {
	svc := &mockShiftService{active: &dto.ShiftResponse{ID: "shift-1"}}
	app := newShiftApp(svc, &mockReportService{})

	resp := performJSON(t, app, http.MethodGet, "/api/shifts/active?supervisorId=S1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestShiftHandlerActiveNone(t *testing.T) {
	app := newShiftApp(&mockShiftService{}, &mockReportService{})

	resp := performJSON(t, app, http.MethodGet, "/api/shifts/active?supervisorId=S1", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestShiftHandlerActiveRequiresSupervisor(t *testing.T) {
	app := newShiftApp(&mockShiftService{}, &mockReportService{})

	resp := performJSON(t, app, http.MethodGet, "/api/shifts/active", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestShiftHandlerLiveCount(t *testing.T) {
	reports := &mockReportService{liveCount: dto.LiveCountResponse{
		ShiftID:       "shift-1",
		Total:         12,
		RecentCount:   3,
		WindowMinutes: 5,
		GeneratedAt:   time.Now().UTC(),
		CacheHit:      true,
	}}
	app := newShiftApp(&mockShiftService{}, reports)

	resp := performJSON(t, app, http.MethodGet, "/api/shifts/shift-1/live-count?window=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))

	var response struct {
		Data dto.LiveCountResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, int64(12), response.Data.Total)
	require.Equal(t, 3, response.Data.RecentCount)
}

func TestShiftHandlerLiveCountUnknownShift(t *testing.T) {
	reports := &mockReportService{liveCountErr: service.ErrShiftNotFound}
	app := newShiftApp(&mockShiftService{}, reports)

	resp := performJSON(t, app, http.MethodGet, "/api/shifts/missing/live-count", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func performJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
