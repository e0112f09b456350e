package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	testEventID       = "0192a7c4-3f1e-7a10-8b2c-5d6e7f801234"
	testCorrectionID  = "0192a7c4-3f1e-7a10-8b2c-5d6e7f805678"
)

type fakeAttendanceService struct {
	recordErr  error
	lastRecord attendance.RecordEventRequest
	lastExport attendance.ExportRequest
}

func (f *fakeAttendanceService) RecordEvent(ctx context.Context, req attendance.RecordEventRequest) (attendance.RecordEventResponse, error) {
	f.lastRecord = req
	if f.recordErr != nil {
		return attendance.RecordEventResponse{}, f.recordErr
	}
	return attendance.RecordEventResponse{
		Event: attendance.ClockEventResponse{ID: testEventID, Type: req.Type},
		State: attendance.StateWorking,
	}, nil
}

func (f *fakeAttendanceService) GetStatus(ctx context.Context) (attendance.StatusResponse, error) {
	return attendance.StatusResponse{State: attendance.StateOut, CanClockIn: true}, nil
}

func (f *fakeAttendanceService) ListMyEvents(ctx context.Context, filter attendance.EventFilter) (attendance.ListEventsResponse, error) {
	return attendance.ListEventsResponse{Events: []attendance.ClockEventResponse{}}, nil
}

func (f *fakeAttendanceService) WeeklySummary(ctx context.Context, req attendance.SummaryRequest) (attendance.WeeklySummaryResponse, error) {
	return attendance.WeeklySummaryResponse{WorkedMinutes: 480}, nil
}

func (f *fakeAttendanceService) DailySummary(ctx context.Context, req attendance.SummaryRequest) (attendance.DailySummaryResponse, error) {
	return attendance.DailySummaryResponse{WorkedMinutes: 480}, nil
}

func (f *fakeAttendanceService) Export(ctx context.Context, req attendance.ExportRequest) (attendance.ExportFile, error) {
	f.lastExport = req
	return attendance.ExportFile{
		Filename:    "attendance_20241104_20241110.csv",
		ContentType: "text/csv",
		Data:        []byte("event_id\n"),
	}, nil
}

type fakeCorrectionService struct {
	lastRequest correction.CreateCorrectionRequest
	lastFilter  correction.CorrectionFilter
}

func (f *fakeCorrectionService) Request(ctx context.Context, req correction.CreateCorrectionRequest) (correction.CorrectionResponse, error) {
	f.lastRequest = req
	return correction.CorrectionResponse{ID: testCorrectionID, EventID: req.EventID, Status: "pending"}, nil
}

func (f *fakeCorrectionService) Approve(ctx context.Context, id string) (correction.CorrectionResponse, error) {
	if id != testCorrectionID {
		return correction.CorrectionResponse{}, correction.ErrCorrectionNotFound
	}
	return correction.CorrectionResponse{ID: id, Status: "approved"}, nil
}

func (f *fakeCorrectionService) Reject(ctx context.Context, id string) (correction.CorrectionResponse, error) {
	return correction.CorrectionResponse{ID: id, Status: "rejected"}, nil
}

func (f *fakeCorrectionService) List(ctx context.Context, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error) {
	f.lastFilter = filter
	return correction.ListCorrectionResponse{Page: 1, Limit: 20, TotalCount: 1, Corrections: []correction.CorrectionResponse{{ID: testCorrectionID}}}, nil
}

func (f *fakeCorrectionService) ListMine(ctx context.Context, filter correction.CorrectionFilter) (correction.ListCorrectionResponse, error) {
	return f.List(ctx, filter)
}

type fakeNotificationService struct {
	events chan notification.SSEEvent
	marked notification.MarkAsReadRequest
}

func (f *fakeNotificationService) Send(ctx context.Context, msg notification.Outbound) error {
	return nil
}

func (f *fakeNotificationService) GetNotifications(ctx context.Context, req notification.ListNotificationsRequest) (*notification.NotificationListResponse, error) {
	return &notification.NotificationListResponse{Page: req.Page, PageSize: req.PageSize}, nil
}

func (f *fakeNotificationService) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return 3, nil
}

func (f *fakeNotificationService) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	f.marked = req
	return req.Validate()
}

func (f *fakeNotificationService) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	return f.events, func() {}
}

func (f *fakeNotificationService) Stop() {}

type testServer struct {
	router       http.Handler
	jwt          jwt.Service
	attendance   *fakeAttendanceService
	corrections  *fakeCorrectionService
	notification *fakeNotificationService
}

func newTestServer() *testServer {
	ts := &testServer{
		jwt:          jwt.NewJWTService(handlerTestSecret, time.Hour),
		attendance:   &fakeAttendanceService{},
		corrections:  &fakeCorrectionService{},
		notification: &fakeNotificationService{events: make(chan notification.SSEEvent, 1)},
	}
	ts.router = NewRouter(
		config.AppConfig{Name: "timeclock-test", Env: "test", AllowedOrigins: []string{"*"}},
		ts.jwt,
		NewAttendanceHandler(ts.attendance),
		NewCorrectionHandler(ts.corrections),
		NewNotificationHandler(ts.notification, ts.jwt),
	)
	return ts
}

func (ts *testServer) token(t *testing.T, role user.Role) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(jwt.Claims{
		UserID:     "user-1",
		EmployeeID: "emp-1",
		CompanyID:  "company-1",
		Role:       role,
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_RequiresAccessToken(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/attendance/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sseToken, _, err := ts.jwt.GenerateSSEToken("user-1")
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/status", sseToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "an SSE token is not an access token")

	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/status", ts.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordEvent(t *testing.T) {
	ts := newTestServer()
	token := ts.token(t, user.RoleEmployee)

	t.Run("created", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/attendance/events", token, map[string]string{"type": "clock_in"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, string(attendance.StateWorking), data["state"])
		assert.Equal(t, "clock_in", ts.attendance.lastRecord.Type)
	})

	t.Run("unknown type is a validation error", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/attendance/events", token, map[string]string{"type": "lunch"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/events", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rule violations", func(t *testing.T) {
		tests := []struct {
			err    error
			status int
			code   string
		}{
			{attendance.ErrInvalidTransition, http.StatusConflict, ""},
			{attendance.ErrOutOfSchedule, http.StatusUnprocessableEntity, "OUT_OF_SCHEDULE"},
			{attendance.ErrAbsenceActive, http.StatusUnprocessableEntity, "ABSENCE_ACTIVE"},
		}
		for _, tt := range tests {
			ts.attendance.recordErr = tt.err
			rec := ts.do(t, http.MethodPost, "/api/v1/attendance/events", token, map[string]string{"type": "clock_in"})
			assert.Equal(t, tt.status, rec.Code, tt.err.Error())
			if tt.code != "" {
				errBody := decodeEnvelope(t, rec)["error"].(map[string]interface{})
				assert.Equal(t, tt.code, errBody["code"])
			}
		}
		ts.attendance.recordErr = nil
	})
}

func TestExport_ManagerOnly(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/attendance/export", ts.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/export?start_date=2024-11-04&end_date=2024-11-10", ts.token(t, user.RoleManager), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_20241104_20241110.csv")
	assert.Equal(t, attendance.ExportFormatCSV, ts.attendance.lastExport.Format)

	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/export?format=pdf", ts.token(t, user.RoleManager), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCorrections(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/v1/attendance/events/"+testEventID+"/corrections", ts.token(t, user.RoleEmployee), map[string]string{
		"requested_timestamp": "2024-11-04T08:00:00Z",
		"reason":              "forgot to clock in",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testEventID, ts.corrections.lastRequest.EventID)

	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/corrections/my", ts.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/attendance/corrections/"+testCorrectionID+"/approve", ts.token(t, user.RoleEmployee), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/attendance/corrections/"+testCorrectionID+"/approve", ts.token(t, user.RoleManager), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "approved", data["status"])

	rec = ts.do(t, http.MethodPost, "/api/v1/attendance/corrections/"+testEventID+"/approve", ts.token(t, user.RoleOwner), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/attendance/corrections?status=pending&page=2", ts.token(t, user.RoleManager), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", *ts.corrections.lastFilter.Status)
	assert.Equal(t, 2, ts.corrections.lastFilter.Page)
	meta := decodeEnvelope(t, rec)["meta"].(map[string]interface{})
	assert.EqualValues(t, 1, meta["total_items"])
}

func TestNotifications(t *testing.T) {
	ts := newTestServer()
	token := ts.token(t, user.RoleEmployee)

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["unread_count"])

	rec = ts.do(t, http.MethodPost, "/api/v1/notifications/read", token, map[string]bool{"all": true})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.notification.marked.All)

	rec = ts.do(t, http.MethodPost, "/api/v1/notifications/read", token, map[string]bool{"all": false})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNotificationStream(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/v1/notifications/stream?token="+ts.token(t, user.RoleEmployee), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "access tokens cannot open the stream")

	rec = ts.do(t, http.MethodPost, "/api/v1/notifications/sse-token", ts.token(t, user.RoleEmployee), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sseToken := decodeEnvelope(t, rec)["data"].(map[string]interface{})["token"].(string)

	server := httptest.NewServer(ts.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/notifications/stream?token="+sseToken, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	ts.notification.events <- notification.SSEEvent{
		Event: "notification",
		Data:  notification.NotificationResponse{ID: "n-1", Type: notification.TypeCorrectionApproved},
	}

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 6 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
		if strings.HasPrefix(line, "data: {\"id\":\"n-1\"") {
			break
		}
	}
	assert.Equal(t, "event: connected", lines[0])
	assert.Contains(t, lines, "event: notification")
}
