package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/slot-swap-backend/internal/slot"
	slotHttp "github.com/nekogravitycat/slot-swap-backend/internal/slot/http"
	"github.com/nekogravitycat/slot-swap-backend/internal/swap"
	swapHttp "github.com/nekogravitycat/slot-swap-backend/internal/swap/http"
)

var day = time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)

func createSlot(t *testing.T, token, title string, start time.Time, status string) slotHttp.SlotResponse {
	t.Helper()
	w := executeRequest("POST", "/v1/events", map[string]any{
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

func TestSwapLifecycle(t *testing.T) {
	clearTables(t)

	// ==== Setup Users & Tokens ====
	alice := createTestUser(t, "alice@swap.com")
	bob := createTestUser(t, "bob@swap.com")
	aliceToken := generateToken(t, alice.ID)
	bobToken := generateToken(t, bob.ID)

	meeting := createSlot(t, aliceToken, "Team Meeting", day, "SWAPPABLE")
	focus := createSlot(t, bobToken, "Focus Block", day.Add(24*time.Hour), "SWAPPABLE")

	var requestID string

	t.Run("Request Locks Both Slots", func(t *testing.T) {
		w := executeRequest("POST", "/v1/swap-request", swapHttp.CreateSwapRequestBody{
			MySlotID: meeting.ID, TheirSlotID: focus.ID,
		}, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp swapHttp.SwapRequestResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, bob.ID, resp.ToUserID)
		require.NotNil(t, resp.TheirSlot)
		assert.Equal(t, "SWAP_PENDING", resp.TheirSlot.Status)
		requestID = resp.ID

		w = executeRequest("GET", "/v1/swappable-slots", nil, bobToken)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Pending Slot Cannot Be Released Or Deleted", func(t *testing.T) {
		w := executeRequest("PATCH", "/v1/events/"+focus.ID, map[string]any{"status": "BUSY"}, bobToken)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = executeRequest("DELETE", "/v1/events/"+meeting.ID, nil, aliceToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Accept Exchanges Ownership", func(t *testing.T) {
		accept := true
		w := executeRequest("POST", "/v1/swap-response/"+requestID, swapHttp.SwapResponseBody{Accept: &accept}, bobToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		repo := slot.NewPgxRepository(testPool)
		s1, err := repo.GetByID(context.Background(), meeting.ID)
		require.NoError(t, err)
		s2, err := repo.GetByID(context.Background(), focus.ID)
		require.NoError(t, err)

		assert.Equal(t, bob.ID, s1.OwnerID)
		assert.Equal(t, alice.ID, s2.OwnerID)
		assert.Equal(t, slot.StatusBusy, s1.Status)
		assert.Equal(t, slot.StatusBusy, s2.Status)

		w = executeRequest("POST", "/v1/swap-response/"+requestID, swapHttp.SwapResponseBody{Accept: &accept}, bobToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Listing Keeps History", func(t *testing.T) {
		w := executeRequest("GET", "/v1/requests", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)

		var resp swapHttp.RequestsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Outgoing, 1)
		assert.Equal(t, "ACCEPTED", resp.Outgoing[0].Status)
		assert.Empty(t, resp.Incoming)
	})
}

func TestSwapRejectThenDelete(t *testing.T) {
	clearTables(t)

	alice := createTestUser(t, "alice@reject.com")
	bob := createTestUser(t, "bob@reject.com")
	aliceToken := generateToken(t, alice.ID)
	bobToken := generateToken(t, bob.ID)

	mine := createSlot(t, aliceToken, "Gym", day, "SWAPPABLE")
	theirs := createSlot(t, bobToken, "Lunch", day.Add(3*time.Hour), "SWAPPABLE")

	w := executeRequest("POST", "/v1/swap-request", swapHttp.CreateSwapRequestBody{
		MySlotID: mine.ID, TheirSlotID: theirs.ID,
	}, aliceToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created swapHttp.SwapRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	reject := false
	w = executeRequest("POST", "/v1/swap-response/"+created.ID, swapHttp.SwapResponseBody{Accept: &reject}, bobToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = executeRequest("GET", "/v1/swappable-slots", nil, bobToken)
	var market []slotHttp.SlotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &market))
	require.Len(t, market, 1)
	assert.Equal(t, mine.ID, market[0].ID)

	w = executeRequest("DELETE", "/v1/events/"+mine.ID, nil, aliceToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// The resolved request survives the deleted slot.
	w = executeRequest("GET", "/v1/requests/"+created.ID, nil, aliceToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var kept swapHttp.SwapRequestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &kept))
	assert.Equal(t, "REJECTED", kept.Status)
	assert.Empty(t, kept.MySlotID)
	assert.Nil(t, kept.MySlot)
	require.NotNil(t, kept.TheirSlot)
	assert.Equal(t, theirs.ID, kept.TheirSlot.ID)

	w = executeRequest("GET", "/v1/requests", nil, bobToken)
	var listed swapHttp.RequestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Incoming, 1)
	assert.Equal(t, created.ID, listed.Incoming[0].ID)
}

func TestConcurrentRequestsRace(t *testing.T) {
	clearTables(t)

	alice := createTestUser(t, "alice@race.com")
	bob := createTestUser(t, "bob@race.com")
	carol := createTestUser(t, "carol@race.com")

	a := createSlot(t, generateToken(t, alice.ID), "A", day, "SWAPPABLE")
	b := createSlot(t, generateToken(t, bob.ID), "B", day.Add(time.Hour), "SWAPPABLE")
	c := createSlot(t, generateToken(t, carol.ID), "C", day.Add(2*time.Hour), "SWAPPABLE")

	svc := testContainer.SwapService
	attempts := []struct{ requester, offered string }{
		{alice.ID, a.ID},
		{carol.ID, c.ID},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(attempts))
	for i, at := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.CreateRequest(context.Background(), at.requester, at.offered, b.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, swap.ErrRequestedNotSwappable)
	}
	assert.Equal(t, 1, succeeded)

	var pending int
	err := testPool.QueryRow(context.Background(),
		"SELECT count(*) FROM public.swap_requests WHERE status = 'PENDING'").Scan(&pending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}
