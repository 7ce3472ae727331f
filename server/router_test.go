package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pokerroom/server/engine"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	api := &apiServer{
		rooms: NewRooms(),
		log:   zap.NewNop(),
		cfg:   engine.Config{BuyIn: 10000, Seed: 3},
	}
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type joinReply struct {
	Seat  int             `json:"seat"`
	Token string          `json:"token"`
	State engine.Snapshot `json:"state"`
}

func createTable(t *testing.T, base string) string {
	t.Helper()
	var created struct {
		TableID string `json:"table_id"`
	}
	code := doJSON(t, http.MethodPost, base+"/api/tables", map[string]any{"buy_in": 10000, "seed": 3}, &created)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, created.TableID)
	return created.TableID
}

func TestCreateRejectsTinyBuyIn(t *testing.T) {
	srv := newTestServer(t)
	code := doJSON(t, http.MethodPost, srv.URL+"/api/tables", map[string]any{"buy_in": 10}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownTableIs404(t *testing.T) {
	srv := newTestServer(t)
	code := doJSON(t, http.MethodGet, srv.URL+"/api/tables/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTableLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	id := createTable(t, srv.URL)
	tableURL := srv.URL + "/api/tables/" + id

	var j0, j1 joinReply
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j0))
	require.Equal(t, 0, j0.Seat)
	assert.Equal(t, engine.PhaseWaiting, j0.State.Phase)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j1))
	require.Equal(t, 1, j1.Seat)
	assert.Equal(t, engine.PhasePreflop, j1.State.Phase)

	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, tableURL+"/join", nil, nil),
		"third join finds the table full")

	// Out of turn, facing a bet, and bad credentials each fail distinctly.
	act := func(token string, a engine.Action) (int, engine.Snapshot) {
		var snap engine.Snapshot
		code := doJSON(t, http.MethodPost, tableURL+"/action",
			map[string]any{"token": token, "action": a}, &snap)
		return code, snap
	}
	code, _ := act(j1.Token, engine.FoldAction())
	assert.Equal(t, http.StatusConflict, code)
	code, _ = act(j0.Token, engine.CheckAction())
	assert.Equal(t, http.StatusConflict, code, "cannot check facing the big blind")
	code, _ = act("bogus", engine.FoldAction())
	assert.Equal(t, http.StatusForbidden, code)

	code, snap := act(j0.Token, engine.FoldAction())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, engine.PhaseSettled, snap.Phase)
	assert.Equal(t, 1, snap.Winner)

	var eq engine.Equity
	require.Equal(t, http.StatusOK,
		doJSON(t, http.MethodGet, tableURL+"/equity?trials=200&token="+j0.Token, nil, &eq))
	assert.InDelta(t, 1.0, eq.Win+eq.Tie+eq.Lose, 1e-9)

	assert.Equal(t, http.StatusServiceUnavailable,
		doJSON(t, http.MethodGet, tableURL+"/hands", nil, nil),
		"history requires a database")

	var rematch engine.Snapshot
	require.Equal(t, http.StatusOK,
		doJSON(t, http.MethodPost, tableURL+"/rematch", map[string]any{"token": j1.Token}, &rematch))
	assert.Equal(t, engine.PhasePreflop, rematch.Phase)
	assert.Equal(t, 1, rematch.Dealer)
}

func TestMalformedActionBody(t *testing.T) {
	srv := newTestServer(t)
	id := createTable(t, srv.URL)

	resp, err := http.Post(srv.URL+"/api/tables/"+id+"/action", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/tables/"+id+"/action", "application/json",
		strings.NewReader(`{"token":"x","action":{"kind":"splash"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "unknown action kinds are malformed, not conflicts")
}

// Subscribers attach and detach while the table mutates underneath them.
// Run with -race: every conn write must stay serialized under the table
// lock, including the snapshot sent on subscribe.
func TestSubscribersDuringMutations(t *testing.T) {
	srv := newTestServer(t)
	id := createTable(t, srv.URL)
	tableURL := srv.URL + "/api/tables/" + id

	var j0, j1 joinReply
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j0))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j1))

	wsURL := "ws" + strings.TrimPrefix(tableURL, "http") + "/ws"
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if resp != nil {
				resp.Body.Close()
			}
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var snap engine.Snapshot
			if !assert.NoError(t, conn.ReadJSON(&snap), "subscribing delivers the current state") {
				return
			}
			// Keep consuming broadcasts until the hammering stops.
			for conn.ReadJSON(&snap) == nil {
			}
		}()
	}

	// Hammer mutations while the dials above are in flight. The seat on
	// turn alternates with the button, so the folder alternates too and
	// neither stack can bust.
	tokens := [2]string{j0.Token, j1.Token}
	for hand := 0; hand < 20; hand++ {
		code := doJSON(t, http.MethodPost, tableURL+"/action",
			map[string]any{"token": tokens[hand%2], "action": engine.FoldAction()}, nil)
		require.Equal(t, http.StatusOK, code)
		code = doJSON(t, http.MethodPost, tableURL+"/rematch",
			map[string]any{"token": j0.Token}, nil)
		require.Equal(t, http.StatusOK, code)
	}
	wg.Wait()
}

func TestWebsocketStreamsSnapshots(t *testing.T) {
	srv := newTestServer(t)
	id := createTable(t, srv.URL)
	tableURL := srv.URL + "/api/tables/" + id

	var j0, j1 joinReply
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j0))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, tableURL+"/join", nil, &j1))

	wsURL := "ws" + strings.TrimPrefix(tableURL, "http") + "/ws?token=" + j0.Token
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial engine.Snapshot
	require.NoError(t, conn.ReadJSON(&initial), "subscribing delivers the current state")
	assert.Equal(t, engine.PhasePreflop, initial.Phase)
	assert.Len(t, initial.Players[0].Hole, 2)
	assert.Nil(t, initial.Players[1].Hole)

	code := doJSON(t, http.MethodPost, tableURL+"/action",
		map[string]any{"token": j0.Token, "action": engine.CallAction()}, nil)
	require.Equal(t, http.StatusOK, code)

	var next engine.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 800, next.Pot, "small blind completes to the big blind")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]bool
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, &body))
	assert.True(t, body["ok"])
}
