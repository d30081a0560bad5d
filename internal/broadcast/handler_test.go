package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/sportz/internal/domain"
)

func startServer(t *testing.T, opts Options) (*Hub, string) {
	t.Helper()
	h := newTestHub(t, opts, clockwork.NewRealClock())
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	welcome := readFrame(t, ws)
	require.Equal(t, "welcome", welcome["type"])
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(waitFor)))
	var frame map[string]any
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func send(t *testing.T, ws *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func waitForConnections(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ConnectionCount() == n }, waitFor, tick)
}

func TestServe_CommentaryGoesToSubscriberOnly(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	b := dial(t, url)
	waitForConnections(t, h, 2)

	send(t, a, `{"type":"subscribe","matchId":42}`)
	ack := readFrame(t, a)
	assert.Equal(t, "subscribed", ack["type"])
	assert.EqualValues(t, 42, ack["matchId"])

	h.BroadcastCommentary(42, domain.Commentary{MatchID: 42, Message: "Goal!"})
	h.BroadcastMatchCreated(domain.Match{ID: 43})

	got := readFrame(t, a)
	assert.Equal(t, "commentary", got["type"])
	assert.Equal(t, "Goal!", got["data"].(map[string]any)["message"])

	// B's next frame is the match_created broadcast: the commentary skipped it.
	assert.Equal(t, "match_created", readFrame(t, b)["type"])
}

func TestServe_UnsubscribeStopsDelivery(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	waitForConnections(t, h, 1)

	send(t, a, `{"type":"subscribe","matchId":7}`)
	assert.Equal(t, "subscribed", readFrame(t, a)["type"])
	send(t, a, `{"type":"unsubscribe","matchId":7}`)
	ack := readFrame(t, a)
	assert.Equal(t, "unsubscribed", ack["type"])
	assert.EqualValues(t, 7, ack["matchId"])

	h.BroadcastCommentary(7, domain.Commentary{MatchID: 7, Message: "Corner"})
	h.BroadcastMatchCreated(domain.Match{ID: 8})

	assert.Equal(t, "match_created", readFrame(t, a)["type"])
}

func TestServe_MatchCreatedReachesAll(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	b := dial(t, url)
	waitForConnections(t, h, 2)

	send(t, a, `{"type":"subscribe","matchId":1}`)
	readFrame(t, a)

	h.BroadcastMatchCreated(domain.Match{ID: 99, HomeTeam: "Ajax", AwayTeam: "PSV"})

	for _, ws := range []*websocket.Conn{a, b} {
		frame := readFrame(t, ws)
		assert.Equal(t, "match_created", frame["type"])
		assert.EqualValues(t, 99, frame["data"].(map[string]any)["id"])
	}
}

func TestServe_InvalidJSONGetsOneErrorFrame(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	waitForConnections(t, h, 1)

	send(t, a, `not-json`)
	send(t, a, `{"type":"hello"}`)
	send(t, a, `{"type":"subscribe","matchId":5}`)

	errFrame := readFrame(t, a)
	assert.Equal(t, "error", errFrame["type"])
	assert.Equal(t, "Invalid JSON", errFrame["data"])

	// The unrecognized frame produced no reply.
	assert.Equal(t, "subscribed", readFrame(t, a)["type"])
	assert.Equal(t, 1, h.ConnectionCount())
}

func TestServe_OversizedFrameClosesConnection(t *testing.T) {
	opts := testOptions()
	opts.MaxPayloadBytes = 64
	h, url := startServer(t, opts)
	a := dial(t, url)
	waitForConnections(t, h, 1)

	send(t, a, `{"type":"subscribe","matchId":1,"pad":"`+strings.Repeat("x", 128)+`"}`)

	require.NoError(t, a.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := a.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
	waitForConnections(t, h, 0)
	assert.Empty(t, h.Registry().SubscribersOf(1))
}

func TestServe_PeerCloseTearsDown(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	waitForConnections(t, h, 1)

	send(t, a, `{"type":"subscribe","matchId":3}`)
	readFrame(t, a)
	require.NoError(t, a.Close())

	waitForConnections(t, h, 0)
	assert.Empty(t, h.Registry().SubscribersOf(3))
}

func TestServe_GlobalLimitReturns503(t *testing.T) {
	opts := testOptions()
	opts.Limits = NewConnectionLimits(clockwork.NewRealClock(), 1, 10, 100, 100)
	h, url := startServer(t, opts)
	dial(t, url)
	waitForConnections(t, h, 1)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServe_RateLimitReturns429(t *testing.T) {
	opts := testOptions()
	opts.Limits = NewConnectionLimits(clockwork.NewRealClock(), 100, 100, 0.001, 1)
	_, url := startServer(t, opts)
	dial(t, url)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestServe_RejectedOrigin(t *testing.T) {
	opts := testOptions()
	opts.CheckOrigin = NewCheckOrigin("https://scores.example.com", false)
	_, url := startServer(t, opts)

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServe_StopSendsGoingAway(t *testing.T) {
	h, url := startServer(t, testOptions())
	a := dial(t, url)
	waitForConnections(t, h, 1)

	h.Stop()

	require.NoError(t, a.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := a.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
