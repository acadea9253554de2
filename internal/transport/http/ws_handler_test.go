package http

import (
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stagequiz/internal/app"
	"stagequiz/internal/domain"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.Session) {
	t.Helper()
	session := app.NewSession(app.Options{Rand: rand.New(rand.NewSource(1))})
	session.LoadQuestions(sampleBank())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(session).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, session
}

func dial(t *testing.T, server *httptest.Server, role string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?role=" + role
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketOperatorFlow(t *testing.T) {
	server, _ := newTestServer(t)
	conn := dial(t, server, RoleOperator)

	// Every connection gets the current snapshot first.
	typ, payload := readNext(conn, t, "state")
	if typ != "state" || payload["screen"] != string(domain.ScreenTitle) {
		t.Fatalf("expected TITLE state, got %s %v", typ, payload)
	}

	writeMsg(conn, t, "advance", nil)
	_, payload = readNext(conn, t, "state")
	if payload["screen"] != string(domain.ScreenSetup) {
		t.Fatalf("expected SETUP, got %v", payload["screen"])
	}

	writeMsg(conn, t, "active", map[string]any{"player": 0})
	_, _ = readNext(conn, t, "state")

	writeMsg(conn, t, "advance", nil)
	_, payload = readNext(conn, t, "state")
	if payload["screen"] != string(domain.ScreenQuiz) {
		t.Fatalf("expected QUIZ, got %v", payload["screen"])
	}
	if payload["currentQuestion"] == nil {
		t.Fatalf("expected a question on QUIZ entry")
	}

	writeMsg(conn, t, "answer", map[string]any{"player": 0, "option": "B"})
	_, payload = readNext(conn, t, "state")
	answers, ok := payload["answers"].([]any)
	if !ok || len(answers) != len(app.DefaultPlayers) || answers[0] != "B" {
		t.Fatalf("expected recorded answer, got %v", payload["answers"])
	}
}

func TestWebSocketSendsExactlyOneInitialState(t *testing.T) {
	server, session := newTestServer(t)
	conn := dial(t, server, RoleDisplay)

	_, payload := readNext(conn, t, "state")
	if payload["screen"] != string(domain.ScreenTitle) {
		t.Fatalf("expected TITLE first, got %v", payload["screen"])
	}

	// The very next message must carry the mutation below, not a second
	// copy of the initial snapshot.
	session.UpdateLastMessage("ping")
	_, payload = readNext(conn, t, "state")
	if payload["lastMessage"] != "ping" {
		t.Fatalf("got a duplicate initial snapshot before the update: %v", payload)
	}
}

func TestWebSocketDisplayCannotDrive(t *testing.T) {
	server, session := newTestServer(t)
	conn := dial(t, server, RoleDisplay)
	_, _ = readNext(conn, t, "state")

	writeMsg(conn, t, "advance", nil)
	typ, payload := readNext(conn, t, "")
	if typ != "error" || payload["message"] != "operator role required" {
		t.Fatalf("expected operator gate error, got %s %v", typ, payload)
	}
	if session.Snapshot().Screen != domain.ScreenTitle {
		t.Fatalf("display connection must not advance the game")
	}

	// Answers are allowed from any role; devices connect as displays.
	writeMsg(conn, t, "line", map[string]any{"text": "join 1"})
	_, payload = readNext(conn, t, "state")
	active, ok := payload["activePlayers"].([]any)
	if !ok || active[0] != true {
		t.Fatalf("expected player 1 active, got %v", payload["activePlayers"])
	}
}

func TestWebSocketLoadCSV(t *testing.T) {
	server, session := newTestServer(t)
	conn := dial(t, server, RoleOperator)
	_, _ = readNext(conn, t, "state")

	csv := "ordinal,prompt,answer,hint,option1,option2,option3,option4,bucket,explanation,links,author\n" +
		"1,Loaded over the wire?,1,,yes,no,maybe,never,easy-tier,,,\n"
	writeMsg(conn, t, "loadcsv", map[string]any{"csv": csv})

	sawBankLoaded := false
	for i := 0; i < 3 && !sawBankLoaded; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == "bankLoaded" {
			sawBankLoaded = true
			if payload["count"] != float64(1) {
				t.Fatalf("expected 1 loaded question, got %v", payload["count"])
			}
		}
	}
	if !sawBankLoaded {
		t.Fatalf("expected a bankLoaded reply")
	}

	session.Advance()
	session.Advance()
	snap := session.Snapshot()
	if snap.CurrentQuestion == nil || snap.CurrentQuestion.Prompt != "Loaded over the wire?" {
		t.Fatalf("bank not swapped, got %+v", snap.CurrentQuestion)
	}
}

func TestWebSocketRejectsUnknownRole(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/ws?role=admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeMsg(conn *websocket.Conn, t *testing.T, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{ID: 1, Prompt: "What is 2 + 2?", Answer: 2, Options: []string{"3", "4", "5", "6"}, Bucket: domain.BucketEasy},
		{ID: 2, Prompt: "Pick the prime.", Answer: 3, Options: []string{"4", "6", "7", "9"}, Bucket: domain.BucketMid},
		{ID: 3, Prompt: "Hard one.", Answer: 1, Options: []string{"a", "b", "c", "d"}, Bucket: domain.BucketHard},
		{ID: 4, Prompt: "Bonus round.", Answer: 4, Options: []string{"w", "x", "y", "z"}, Bucket: domain.BucketBonus},
	}
}
