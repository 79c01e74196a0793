package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/chat"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/http/middleware"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/metrics"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/models"
	"github.com/TejasviBhadavankar/chat-application-fullstack/internal/ws"
)

const testSecret = "test-secret"

type testEnv struct {
	srv *httptest.Server
	db  *gorm.DB
	hub *ws.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	hub := ws.NewHub(m, logger)
	svc := chat.NewService(db, ws.ActivityPusher{Hub: hub}, hub, m, logger)

	r := gin.New()

	authH := &AuthHandler{DB: db, JWTSecret: testSecret, Log: logger}
	r.POST("/api/v1/auth/register", authH.Register)
	r.POST("/api/v1/auth/login", authH.Login)

	wsH := &WSHandler{Hub: hub, JWTSecret: testSecret, WSInsecureSkipVerify: true, Log: logger}
	r.GET("/ws", wsH.Handle)

	authed := r.Group("/api/v1")
	authed.Use(middleware.AuthMiddleware(testSecret))

	chatH := &ChatHandler{Svc: svc, Log: logger}
	authed.GET("/contacts", chatH.ListContacts)
	authed.GET("/messages/:id", chatH.ListMessages)
	authed.POST("/messages/:id", chatH.SendMessage)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: db, hub: hub}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func (e *testEnv) signup(t *testing.T, name string) (uint, string) {
	t.Helper()

	resp, body := e.request(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d (%v)", name, resp.StatusCode, body)
	}
	id := uint(body["id"].(float64))

	resp, body = e.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    name + "@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d (%v)", name, resp.StatusCode, body)
	}
	return id, body["access_token"].(string)
}

func (e *testEnv) dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readWSEvent(t *testing.T, conn *websocket.Conn, typ string) ws.Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithDeadline(context.Background(), deadline)
		var ev ws.Event
		err := wsjson.Read(ctx, conn, &ev)
		cancel()
		if err != nil {
			t.Fatalf("read ws: %v", err)
		}
		if ev.Type == typ {
			return ev
		}
	}
	t.Fatalf("no %q event within deadline", typ)
	return ws.Event{}
}

func TestFullFlow(t *testing.T) {
	env := newTestEnv(t)

	aliceID, aliceTok := env.signup(t, "alice")
	bobID, bobTok := env.signup(t, "bob")

	bobConn := env.dialWS(t, bobTok)

	// Alice sends, Bob's live channel gets the activity event.
	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", bobID), aliceTok, gin.H{
		"text": "hi bob",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d (%v)", resp.StatusCode, body)
	}

	ev := readWSEvent(t, bobConn, "activity")
	data := ev.Data.(map[string]any)
	if data["preview"] != "hi bob" {
		t.Fatalf("activity preview = %v", data["preview"])
	}
	if uint(data["sender_id"].(float64)) != aliceID {
		t.Fatalf("activity sender = %v, want %d", data["sender_id"], aliceID)
	}

	// Transcript from Alice's side includes the message.
	resp, body = env.request(t, http.MethodGet, fmt.Sprintf("/api/v1/messages/%d", bobID), aliceTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transcript: status %d", resp.StatusCode)
	}
	msgs := body["data"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["text"] != "hi bob" {
		t.Fatalf("transcript = %v", msgs)
	}

	// Alice's roster shows Bob first, online, with the preview.
	resp, body = env.request(t, http.MethodGet, "/api/v1/contacts", aliceTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("contacts: status %d", resp.StatusCode)
	}
	contacts := body["data"].([]any)
	head := contacts[0].(map[string]any)
	if uint(head["id"].(float64)) != bobID {
		t.Fatalf("roster head = %v, want bob (%d)", head["id"], bobID)
	}
	if head["online"] != true {
		t.Fatal("bob should be online")
	}
	if head["last_activity"].(map[string]any)["preview"] != "hi bob" {
		t.Fatalf("roster preview = %v", head["last_activity"])
	}
}

func TestSendValidationAndErrors(t *testing.T) {
	env := newTestEnv(t)

	_, aliceTok := env.signup(t, "alice")
	bobID, _ := env.signup(t, "bob")

	// Empty payload.
	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", bobID), aliceTok, gin.H{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty send: status %d, want 400", resp.StatusCode)
	}

	var count int64
	env.db.Model(&models.Message{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected send stored %d messages", count)
	}

	// Unknown peer.
	resp, _ = env.request(t, http.MethodPost, "/api/v1/messages/9999", aliceTok, gin.H{"text": "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown peer: status %d, want 404", resp.StatusCode)
	}

	// Missing token.
	resp, _ = env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", bobID), "", gin.H{"text": "hi"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: status %d, want 401", resp.StatusCode)
	}
}

func TestSendToOfflinePeerSucceeds(t *testing.T) {
	env := newTestEnv(t)

	_, aliceTok := env.signup(t, "alice")
	bobID, _ := env.signup(t, "bob")

	// Nobody connected: the push is dropped, the send still succeeds.
	resp, body := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", bobID), aliceTok, gin.H{
		"text": "catch up later",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d (%v)", resp.StatusCode, body)
	}
}

func TestWSRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/ws?token=garbage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", resp.StatusCode)
	}
}

func TestReconnectReplacesChannel(t *testing.T) {
	env := newTestEnv(t)

	_, aliceTok := env.signup(t, "alice")
	bobID, bobTok := env.signup(t, "bob")

	_ = env.dialWS(t, bobTok)
	second := env.dialWS(t, bobTok) // reconnect: last writer wins

	resp, _ := env.request(t, http.MethodPost, fmt.Sprintf("/api/v1/messages/%d", bobID), aliceTok, gin.H{
		"text": "after reconnect",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("send: status %d", resp.StatusCode)
	}

	ev := readWSEvent(t, second, "activity")
	if ev.Data.(map[string]any)["preview"] != "after reconnect" {
		t.Fatalf("event = %+v", ev)
	}
}
