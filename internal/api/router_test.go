package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/slot-swap-backend/internal/auth"
	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	slotHttp "github.com/nekogravitycat/slot-swap-backend/internal/slot/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	swapHttp "github.com/nekogravitycat/slot-swap-backend/internal/swap/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/testkit/memstore"
	"github.com/nekogravitycat/slot-swap-backend/internal/user"
	userHttp "github.com/nekogravitycat/slot-swap-backend/internal/user/http"
)

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memstore.New()
	logger := zap.NewNop()

	router, err := NewRouter(Config{
		Logger:      logger,
		UserService: user.NewService(store.Users(), auth.NewBcryptPasswordHasher(bcrypt.MinCost), logger),
		SlotService: slot.NewService(store.Slots(), store, logger),
		SwapService: swap.NewService(store.Requests(), store.Slots(), store, logger),
		JWTManager:  auth.NewJWTManager("test-secret", 30*time.Minute),
	})
	require.NoError(t, err)
	return &testServer{router: router, store: store}
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns its id and access token.
func (s *testServer) signup(t *testing.T, email, name string) (string, string) {
	t.Helper()
	w := s.do("POST", "/v1/auth/register", userHttp.RegisterRequest{
		Email: email, Password: "password123", DisplayName: name,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do("POST", "/v1/auth/login", userHttp.LoginRequest{Email: email, Password: "password123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp userHttp.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.ID, resp.AccessToken
}

func (s *testServer) createEvent(t *testing.T, token, title string, start time.Time, status string) slotHttp.SlotResponse {
	t.Helper()
	w := s.do("POST", "/v1/events", map[string]any{
		"title":     title,
		"startTime": start,
		"endTime":   start.Add(time.Hour),
		"status":    status,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp slotHttp.SlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do("GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.signup(t, "alice@example.com", "Alice")

	t.Run("Me", func(t *testing.T) {
		w := s.do("GET", "/v1/me", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp userHttp.MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, userID, resp.User.ID)
	})

	t.Run("Duplicate Register", func(t *testing.T) {
		w := s.do("POST", "/v1/auth/register", userHttp.RegisterRequest{
			Email: "alice@example.com", Password: "password123", DisplayName: "Again",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Bad Password", func(t *testing.T) {
		w := s.do("POST", "/v1/auth/login", userHttp.LoginRequest{Email: "alice@example.com", Password: "nope-nope"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Protected Routes Need Token", func(t *testing.T) {
		for _, path := range []string{"/v1/events", "/v1/swappable-slots", "/v1/requests", "/v1/me"} {
			w := s.do("GET", path, nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		}
	})
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, aliceToken := s.signup(t, "alice@example.com", "Alice")
	_, bobToken := s.signup(t, "bob@example.com", "Bob")
	start := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

	ev := s.createEvent(t, aliceToken, "Team Meeting", start, "BUSY")
	assert.Equal(t, "BUSY", ev.Status)

	t.Run("Invalid Body", func(t *testing.T) {
		w := s.do("POST", "/v1/events", map[string]any{
			"title": "Bad", "startTime": start, "endTime": start.Add(time.Hour), "status": "FREE",
		}, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do("POST", "/v1/events", map[string]any{
			"title": "Bad", "startTime": start, "endTime": start,
		}, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Busy Event Hidden From Others", func(t *testing.T) {
		w := s.do("GET", "/v1/events/"+ev.ID, nil, bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do("GET", "/v1/events/"+ev.ID, nil, aliceToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Malformed Id", func(t *testing.T) {
		w := s.do("GET", "/v1/events/not-a-uuid", nil, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Patch Status", func(t *testing.T) {
		w := s.do("PATCH", "/v1/events/"+ev.ID, map[string]any{"status": "SWAPPABLE"}, aliceToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp slotHttp.SlotResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "SWAPPABLE", resp.Status)
		assert.Equal(t, "Team Meeting", resp.Title)

		w = s.do("PATCH", "/v1/events/"+ev.ID, map[string]any{"status": "BUSY"}, bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Marketplace", func(t *testing.T) {
		w := s.do("GET", "/v1/swappable-slots", nil, bobToken)
		require.Equal(t, http.StatusOK, w.Code)

		var slots []slotHttp.SlotResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
		require.Len(t, slots, 1)
		assert.Equal(t, ev.ID, slots[0].ID)
		require.NotNil(t, slots[0].Owner)
		assert.Equal(t, "Alice", slots[0].Owner.Name)

		w = s.do("GET", "/v1/swappable-slots", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Delete", func(t *testing.T) {
		w := s.do("DELETE", "/v1/events/"+ev.ID, nil, bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do("DELETE", "/v1/events/"+ev.ID, nil, aliceToken)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = s.do("GET", "/v1/events/"+ev.ID, nil, aliceToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSwapEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceID, aliceToken := s.signup(t, "alice@example.com", "Alice")
	bobID, bobToken := s.signup(t, "bob@example.com", "Bob")
	_, malloryToken := s.signup(t, "mallory@example.com", "Mallory")
	start := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

	mine := s.createEvent(t, aliceToken, "Team Meeting", start, "SWAPPABLE")
	theirs := s.createEvent(t, bobToken, "Focus Block", start.Add(24*time.Hour), "SWAPPABLE")

	var requestID string

	t.Run("Create Request", func(t *testing.T) {
		w := s.do("POST", "/v1/swap-request", swapHttp.CreateSwapRequestBody{
			MySlotID: mine.ID, TheirSlotID: theirs.ID,
		}, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp swapHttp.SwapRequestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, aliceID, resp.FromUserID)
		assert.Equal(t, bobID, resp.ToUserID)
		require.NotNil(t, resp.MySlot)
		assert.Equal(t, "SWAP_PENDING", resp.MySlot.Status)
		requestID = resp.ID
	})

	t.Run("Create Request Errors", func(t *testing.T) {
		w := s.do("POST", "/v1/swap-request", map[string]string{"mySlotId": mine.ID}, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		// Slots are now SWAP_PENDING.
		w = s.do("POST", "/v1/swap-request", swapHttp.CreateSwapRequestBody{
			MySlotID: mine.ID, TheirSlotID: theirs.ID,
		}, aliceToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Status Locked While Pending", func(t *testing.T) {
		w := s.do("PATCH", "/v1/events/"+mine.ID, map[string]any{"status": "BUSY"}, aliceToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.do("DELETE", "/v1/events/"+theirs.ID, nil, bobToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Listing", func(t *testing.T) {
		w := s.do("GET", "/v1/requests", nil, bobToken)
		require.Equal(t, http.StatusOK, w.Code)

		var resp swapHttp.RequestsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Incoming, 1)
		assert.Empty(t, resp.Outgoing)
		assert.Equal(t, requestID, resp.Incoming[0].ID)
		require.NotNil(t, resp.Incoming[0].FromUser)
		assert.Equal(t, "Alice", resp.Incoming[0].FromUser.Name)

		w = s.do("GET", "/v1/requests/"+requestID, nil, malloryToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Respond Validation", func(t *testing.T) {
		w := s.do("POST", "/v1/swap-response/"+requestID, map[string]any{}, bobToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.do("POST", "/v1/swap-response/"+requestID, swapHttp.SwapResponseBody{Accept: new(bool)}, aliceToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Accept", func(t *testing.T) {
		accept := true
		w := s.do("POST", "/v1/swap-response/"+requestID, swapHttp.SwapResponseBody{Accept: &accept}, bobToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp swapHttp.SwapRequestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ACCEPTED", resp.Status)

		w = s.do("GET", "/v1/events", nil, aliceToken)
		var events []slotHttp.SlotResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
		require.Len(t, events, 1)
		assert.Equal(t, theirs.ID, events[0].ID)
		assert.Equal(t, "BUSY", events[0].Status)
		assert.Equal(t, aliceID, events[0].OwnerID)

		w = s.do("POST", fmt.Sprintf("/v1/swap-response/%s", requestID), swapHttp.SwapResponseBody{Accept: &accept}, bobToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
