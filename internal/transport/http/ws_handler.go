package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/RobertYoung/quizmaster/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler exposes the host event surface over a websocket. Every inbound
// event maps to one state transition; every mutation is answered with a full
// state snapshot pushed through the subscription, so the client just
// re-renders whatever arrives.
type WSHandler struct {
	service  *app.HostService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.HostService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type goToCategoryPayload struct {
	Index int `json:"index"`
}

type selectSetPayload struct {
	ID string `json:"id"`
}

type addTeamPayload struct {
	Name string `json:"name"`
}

type teamPayload struct {
	TeamID string `json:"teamId"`
}

type setSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	CategoryCount int    `json:"categoryCount"`
	QuestionCount int    `json:"questionCount"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and runs the host protocol until the
// client goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.service.Subscribe()
	defer cancel()

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine so state pushes and replies never interleave
	// on the connection.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[app.StateSnapshot]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, inbound inboundMessage, send chan<- any) {
	ctx := r.Context()
	switch inbound.Type {
	case "startQuiz":
		h.service.StartQuiz(ctx)
	case "dismissSectionIntro":
		h.service.DismissSectionIntro(ctx)
	case "revealAnswer":
		h.service.RevealAnswer(ctx)
	case "hideAnswer":
		h.service.HideAnswer(ctx)
	case "nextQuestion":
		h.service.NextQuestion(ctx)
	case "previousQuestion":
		h.service.PreviousQuestion(ctx)
	case "goToCategory":
		var payload goToCategoryPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid goToCategory payload")
			return
		}
		if snap := h.service.Snapshot(); payload.Index < 0 || payload.Index >= snap.CategoryCount {
			send <- errorMessage("category index out of range")
			return
		}
		h.service.GoToCategory(ctx, payload.Index)
	case "finishQuiz":
		h.service.FinishQuiz(ctx)
	case "resetQuiz":
		h.service.ResetQuiz(ctx)
	case "selectQuestionSet":
		var payload selectSetPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid selectQuestionSet payload")
			return
		}
		h.service.SelectQuestionSet(ctx, payload.ID)
	case "addTeam":
		var payload addTeamPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid addTeam payload")
			return
		}
		name := strings.TrimSpace(payload.Name)
		if name == "" {
			send <- errorMessage("team name must not be empty")
			return
		}
		id, _ := h.service.AddTeam(ctx, name)
		send <- outboundMessage[teamPayload]{Type: "teamAdded", Payload: teamPayload{TeamID: id}}
	case "removeTeam":
		var payload teamPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid removeTeam payload")
			return
		}
		h.service.RemoveTeam(ctx, payload.TeamID)
	case "toggleQuestionAward":
		var payload teamPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid toggleQuestionAward payload")
			return
		}
		h.service.ToggleQuestionAward(ctx, payload.TeamID)
	case "listSets":
		sets, err := h.service.ListSets(ctx)
		if err != nil {
			send <- errorMessage(err.Error())
			return
		}
		summaries := make([]setSummary, 0, len(sets))
		for _, set := range sets {
			summaries = append(summaries, setSummary{
				ID:            set.ID,
				Name:          set.Name,
				Description:   set.Description,
				Icon:          set.Icon,
				CategoryCount: len(set.Categories),
				QuestionCount: set.TotalQuestions(),
			})
		}
		send <- outboundMessage[[]setSummary]{Type: "sets", Payload: summaries}
	default:
		send <- errorMessage("unsupported message type")
	}
}

func errorMessage(msg string) outboundMessage[errorPayload] {
	return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: msg}}
}
