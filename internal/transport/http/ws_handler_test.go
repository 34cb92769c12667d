package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RobertYoung/quizmaster/internal/app"
	"github.com/RobertYoung/quizmaster/internal/domain"
	"github.com/RobertYoung/quizmaster/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketHostFlow(t *testing.T) {
	server, conn := dialTestServer(t)
	defer server.Close()
	defer conn.Close()

	// The subscription primes every client with the current state.
	msgType, payload := readNext(conn, t, "state")
	if msgType != "state" {
		t.Fatalf("expected state, got %s", msgType)
	}
	var initial app.StateSnapshot
	mustUnmarshal(t, payload, &initial)
	if initial.Progression.Status != domain.StatusSetup {
		t.Fatalf("expected setup state, got %+v", initial.Progression)
	}

	writeEvent(t, conn, "addTeam", map[string]any{"name": "Team Alpha"})

	teamSeen := false
	stateSeen := false
	for i := 0; i < 3 && !(teamSeen && stateSeen); i++ {
		typ, raw := readNext(conn, t, "")
		switch typ {
		case "teamAdded":
			teamSeen = true
		case "state":
			var snap app.StateSnapshot
			mustUnmarshal(t, raw, &snap)
			if len(snap.Teams) == 1 && snap.Teams[0].Name == "Team Alpha" {
				stateSeen = true
			}
		}
	}
	if !teamSeen || !stateSeen {
		t.Fatalf("expected teamAdded and updated state, got teamAdded=%v state=%v", teamSeen, stateSeen)
	}

	writeEvent(t, conn, "startQuiz", nil)
	typ, raw := readNext(conn, t, "state")
	var started app.StateSnapshot
	mustUnmarshal(t, raw, &started)
	if typ != "state" || started.Progression.Status != domain.StatusPlaying || !started.Progression.ShowingSectionIntro {
		t.Fatalf("expected playing with section intro, got %+v", started.Progression)
	}
}

func TestWebSocketRejectsBadInput(t *testing.T) {
	server, conn := dialTestServer(t)
	defer server.Close()
	defer conn.Close()

	readNext(conn, t, "state") // initial snapshot

	writeEvent(t, conn, "addTeam", map[string]any{"name": "   "})
	if typ, _ := readNext(conn, t, "error"); typ != "error" {
		t.Fatalf("expected error for blank team name, got %s", typ)
	}

	writeEvent(t, conn, "goToCategory", map[string]any{"index": 42})
	if typ, _ := readNext(conn, t, "error"); typ != "error" {
		t.Fatalf("expected error for out-of-range category, got %s", typ)
	}

	writeEvent(t, conn, "fullscreen", nil)
	if typ, _ := readNext(conn, t, "error"); typ != "error" {
		t.Fatalf("expected error for unsupported event, got %s", typ)
	}
}

func TestWebSocketListSets(t *testing.T) {
	server, conn := dialTestServer(t)
	defer server.Close()
	defer conn.Close()

	readNext(conn, t, "state")

	writeEvent(t, conn, "listSets", nil)
	typ, raw := readNext(conn, t, "sets")
	if typ != "sets" {
		t.Fatalf("expected sets, got %s", typ)
	}
	var summaries []setSummary
	mustUnmarshal(t, raw, &summaries)
	if len(summaries) != 1 || summaries[0].ID != "set-1" || summaries[0].QuestionCount != 2 {
		t.Fatalf("unexpected set summaries: %+v", summaries)
	}
}

func dialTestServer(t *testing.T) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	catalog := memory.NewSetCatalog(memory.NewStaticSetLoader([]domain.QuestionSet{sampleSet()}), time.Minute)
	service := app.NewHostService(catalog, memory.NewSnapshotStore())
	if err := service.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return server, conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": eventType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
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

func mustUnmarshal(t *testing.T, raw json.RawMessage, into any) {
	t.Helper()
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:   "set-1",
		Name: "Set One",
		Icon: "🎲",
		Categories: []domain.Category{
			{
				ID:            "cat-1",
				Name:          "Category One",
				Icon:          "🧠",
				Color:         "#3b82f6",
				QuestionCount: 2,
				Questions: []domain.Question{
					{ID: "q1", CategoryID: "cat-1", QuestionNumber: 1, Type: domain.QuestionTypeText, QuestionText: "?", Answer: "!", Points: 10},
					{ID: "q2", CategoryID: "cat-1", QuestionNumber: 2, Type: domain.QuestionTypeText, QuestionText: "??", Answer: "!!", Points: 5},
				},
			},
		},
	}
}
