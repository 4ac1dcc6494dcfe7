package access

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/auth"
	"gymdesk/internal/caldate"
)

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) Check(ctx context.Context, userID int, today caldate.Date) (Result, error) {
	args := m.Called(ctx, userID, today)
	return args.Get(0).(Result), args.Error(1)
}

type MockCheckinRepo struct {
	mock.Mock
}

func (m *MockCheckinRepo) Record(ctx context.Context, userID int, allowed bool, reason string) (*Checkin, error) {
	args := m.Called(ctx, userID, allowed, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Checkin), args.Error(1)
}

func (m *MockCheckinRepo) ListByUser(ctx context.Context, userID, limit int) ([]Checkin, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Checkin), args.Error(1)
}

const handlerTestSecret = "test-secret"

func setupAccessRouter(service Service, checkins Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", 11)
		c.Next()
	})

	h := NewHandler(service, checkins, handlerTestSecret, time.UTC)
	router.GET("/access", h.Check)
	router.GET("/access/qr", h.QrPass)
	router.GET("/access/history", h.History)
	router.POST("/admin/checkin", h.Checkin)
	return router
}

func TestCheckHandler_ReturnsGateResult(t *testing.T) {
	service := new(MockAccessService)
	service.On("Check", mock.Anything, 11, mock.Anything).
		Return(Result{Allowed: true, HasActiveMembership: true}, nil)

	router := setupAccessRouter(service, new(MockCheckinRepo))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Allowed)
}

func TestQrPass_AllowedMemberGetsPng(t *testing.T) {
	service := new(MockAccessService)
	service.On("Check", mock.Anything, 11, mock.Anything).
		Return(Result{Allowed: true, HasActiveMembership: true}, nil)

	router := setupAccessRouter(service, new(MockCheckinRepo))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/qr", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestQrPass_DeniedMemberGetsNoPass(t *testing.T) {
	service := new(MockAccessService)
	service.On("Check", mock.Anything, 11, mock.Anything).
		Return(Result{Reason: "overdue installment payment", HasActiveMembership: true, HasOverduePayment: true}, nil)

	router := setupAccessRouter(service, new(MockCheckinRepo))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/access/qr", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "overdue installment payment")
	assert.NotEqual(t, "image/png", w.Header().Get("Content-Type"))
}

func TestCheckinHandler_RecordsDecision(t *testing.T) {
	service := new(MockAccessService)
	service.On("Check", mock.Anything, 11, mock.Anything).
		Return(Result{Allowed: true, HasActiveMembership: true}, nil)

	checkins := new(MockCheckinRepo)
	checkins.On("Record", mock.Anything, 11, true, "").
		Return(&Checkin{ID: 1, UserID: 11, Allowed: true}, nil)

	token, err := auth.GenerateCheckinToken(11, handlerTestSecret)
	require.NoError(t, err)

	router := setupAccessRouter(service, checkins)
	w := httptest.NewRecorder()
	body := bytes.NewBufferString(fmt.Sprintf(`{"token": %q}`, token))
	req, _ := http.NewRequest("POST", "/admin/checkin", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	checkins.AssertExpectations(t)
}

func TestCheckinHandler_RejectsBogusToken(t *testing.T) {
	service := new(MockAccessService)
	checkins := new(MockCheckinRepo)

	router := setupAccessRouter(service, checkins)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/admin/checkin", bytes.NewBufferString(`{"token": "scribble"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	checkins.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
