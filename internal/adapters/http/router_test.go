package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/hotspot/internal/app"
	"github.com/dkeye/hotspot/internal/app/orch"
	"github.com/dkeye/hotspot/internal/config"
	"github.com/dkeye/hotspot/internal/core"
	"github.com/dkeye/hotspot/internal/store/memory"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	mem := memory.New()
	o := orch.New(mem, mem, orch.DefaultOptions())
	done := make(chan struct{})
	go func() {
		_ = o.Run(ctx)
		close(done)
	}()

	cfg := &config.Config{
		Mode:       "test",
		Secret:     "test-secret",
		PingPeriod: time.Minute,
		ICEServers: []string{"stun:stun.example.org:3478"},
	}
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?userId=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, event string, data any) {
	t.Helper()
	f, err := core.Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, f))
}

// readUntil skips frames until event arrives.
func readUntil(t *testing.T, ws *websocket.Conn, event string) core.Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)
		var env core.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		if env.Event == event {
			return env
		}
	}
}

func TestWebSocket_ChatRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	alice := dial(t, srv, "alice")
	var welcome app.WelcomeEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, app.EventWelcome).Data, &welcome))
	assert.NotEmpty(t, welcome.ConnectionID)
	assert.Equal(t, "alice", string(welcome.UserID))

	send(t, alice, "joinRoom", map[string]string{"room": "lobby"})
	assert.Equal(t, "[]", string(readUntil(t, alice, app.EventHistory).Data))

	bob := dial(t, srv, "bob")
	readUntil(t, bob, app.EventWelcome)
	send(t, bob, "joinRoom", map[string]string{"room": "lobby"})

	var sys app.SystemEvent
	require.NoError(t, json.Unmarshal(readUntil(t, alice, app.EventSystem).Data, &sys))
	assert.Equal(t, app.SystemJoin, sys.Type)
	assert.Equal(t, "bob", string(sys.UserID))

	send(t, bob, "message", map[string]string{"room": "lobby", "content": "hi"})
	for _, ws := range []*websocket.Conn{alice, bob} {
		var msg struct {
			Content  string `json:"content"`
			SenderID string `json:"senderId"`
		}
		require.NoError(t, json.Unmarshal(readUntil(t, ws, app.EventMessage).Data, &msg))
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "bob", msg.SenderID)
	}

	send(t, alice, "ping", nil)
	readUntil(t, alice, app.EventPong)

	require.NoError(t, bob.Close())
	require.NoError(t, json.Unmarshal(readUntil(t, alice, app.EventSystem).Data, &sys))
	assert.Equal(t, app.SystemDisconnect, sys.Type)
	assert.Equal(t, "bob", string(sys.UserID))
}

func TestWebSocket_MatchAndSignal(t *testing.T) {
	srv := newTestServer(t)

	x := dial(t, srv, "x")
	readUntil(t, x, app.EventWelcome)
	send(t, x, "register", map[string]any{"languages": []string{"fr"}})
	// pong means the register intent is already queued ahead of anything y sends.
	send(t, x, "ping", nil)
	readUntil(t, x, app.EventPong)

	y := dial(t, srv, "y")
	readUntil(t, y, app.EventWelcome)
	send(t, y, "match", map[string]any{"languages": []string{"fr"}})

	var found app.MatchFoundEvent
	require.NoError(t, json.Unmarshal(readUntil(t, y, app.EventMatchFound).Data, &found))
	assert.Equal(t, "x", string(found.UserID))

	var foundX app.MatchFoundEvent
	require.NoError(t, json.Unmarshal(readUntil(t, x, app.EventMatchFound).Data, &foundX))
	assert.Equal(t, "y", string(foundX.UserID))

	payload := `{ "sdp" : "a=<x> & y" }`
	frame := `{"event":"signal","data":{"partnerId":"` + string(found.PartnerID) + `","data":` + payload + `}}`
	require.NoError(t, y.WriteMessage(websocket.TextMessage, []byte(frame)))
	var sig app.SignalEvent
	require.NoError(t, json.Unmarshal(readUntil(t, x, app.EventSignal).Data, &sig))
	assert.Equal(t, foundX.PartnerID, sig.PartnerID)
	assert.Equal(t, payload, string(sig.Data))

	send(t, y, "match:end", nil)
	var ended app.MatchEndedEvent
	require.NoError(t, json.Unmarshal(readUntil(t, x, app.EventMatchEnded).Data, &ended))
	assert.Equal(t, foundX.PartnerID, ended.PartnerID)
}

func TestWebSocket_MalformedFramesAreDropped(t *testing.T) {
	srv := newTestServer(t)

	ws := dial(t, srv, "erin")
	readUntil(t, ws, app.EventWelcome)

	for _, raw := range []string{
		`not json`,
		`{"event":"joinRoom"}`,
		`{"event":"joinRoom","data":{"userId":"erin"}}`,
		`{"event":"joinRoom","data":"lobby"}`,
		`{"event":"leaveRoom","data":{}}`,
		`{"event":"signal","data":{"data":{}}}`,
		`{"event":"no-such-event","data":{}}`,
	} {
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	// The connection is still served after the bad frames.
	send(t, ws, "ping", nil)
	readUntil(t, ws, app.EventPong)

	resp, err := stdhttp.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rooms []core.RoomInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	assert.Empty(t, rooms)

	send(t, ws, "joinRoom", map[string]string{"room": "after"})
	assert.Equal(t, "[]", string(readUntil(t, ws, app.EventHistory).Data))
}

func TestHTTP_ReadAPI(t *testing.T) {
	srv := newTestServer(t)

	ws := dial(t, srv, "carol")
	readUntil(t, ws, app.EventWelcome)
	send(t, ws, "joinRoom", map[string]string{"room": "news"})
	readUntil(t, ws, app.EventHistory)

	getJSON := func(path string, v any) int {
		resp, err := stdhttp.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		if v != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
		}
		return resp.StatusCode
	}

	var health map[string]string
	assert.Equal(t, stdhttp.StatusOK, getJSON("/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	var rooms []core.RoomInfo
	assert.Equal(t, stdhttp.StatusOK, getJSON("/api/rooms", &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "news", string(rooms[0].Name))
	assert.Equal(t, 1, rooms[0].MemberCount)

	var members []core.MemberDTO
	assert.Equal(t, stdhttp.StatusOK, getJSON("/api/rooms/news/members", &members))
	require.Len(t, members, 1)
	assert.Equal(t, "carol", string(members[0].UserID))

	var stats core.Stats
	assert.Equal(t, stdhttp.StatusOK, getJSON("/api/stats", &stats))
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, 1, stats.Rooms)

	var ice []webrtc.ICEServer
	assert.Equal(t, stdhttp.StatusOK, getJSON("/api/ice-servers", &ice))
	require.Len(t, ice, 1)
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, ice[0].URLs)
}

func TestHTTP_RoomMessages(t *testing.T) {
	srv := newTestServer(t)

	ws := dial(t, srv, "dan")
	readUntil(t, ws, app.EventWelcome)
	send(t, ws, "joinRoom", map[string]string{"room": "r"})
	for _, c := range []string{"a", "b", "c"} {
		send(t, ws, "message", map[string]string{"room": "r", "content": c})
		readUntil(t, ws, app.EventMessage)
	}

	resp, err := stdhttp.Get(srv.URL + "/api/rooms/r/messages?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var msgs []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].Content)
	assert.Equal(t, "c", msgs[1].Content)
}

func TestICEServers_SkipsEmpty(t *testing.T) {
	got := ICEServers([]string{"stun:a", "", "turn:b"})
	require.Len(t, got, 2)
	assert.Equal(t, []string{"turn:b"}, got[1].URLs)
}
