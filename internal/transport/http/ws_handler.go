package http

import (
	"encoding/json"
	"log"
	"net/http"

	"stagequiz/internal/app"
	"stagequiz/internal/bank"
	"stagequiz/internal/input"

	"github.com/gorilla/websocket"
)

// RoleOperator may drive the game; RoleDisplay only watches state.
const (
	RoleOperator = "operator"
	RoleDisplay  = "display"
)

type WSHandler struct {
	session  *app.Session
	upgrader websocket.Upgrader
}

func NewWSHandler(session *app.Session) *WSHandler {
	return &WSHandler{
		session: session,
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

type answerPayload struct {
	Player int    `json:"player"`
	Option string `json:"option"`
}

type playerPayload struct {
	Player int `json:"player"`
}

type textPayload struct {
	Text string `json:"text"`
}

type loadCSVPayload struct {
	CSV string `json:"csv"`
}

type bankLoadedPayload struct {
	Count  int      `json:"count"`
	Errors []string `json:"errors,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets. Every connection receives
// the current snapshot and then every subsequent state change; operator
// connections may additionally drive the game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role == "" {
		role = RoleDisplay
	}
	if role != RoleOperator && role != RoleDisplay {
		http.Error(w, "role must be operator or display", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

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
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Subscribe already queued the current snapshot, so the forwarding
	// goroutine delivers the initial state without an extra send here.
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(role, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(role string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	switch inbound.Type {
	case "advance":
		if !requireOperator(role, send) {
			return
		}
		h.session.Advance()
	case "reset":
		if !requireOperator(role, send) {
			return
		}
		h.session.Reset()
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid answer payload")
			return
		}
		h.session.SetPlayerAnswer(payload.Player, payload.Option)
	case "active":
		var payload playerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid active payload")
			return
		}
		h.session.MarkPlayerActive(payload.Player)
	case "hint":
		var payload playerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid hint payload")
			return
		}
		h.session.RequestHint(payload.Player)
	case "line":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid line payload")
			return
		}
		h.applyLine(role, payload.Text, send)
	case "loadcsv":
		if !requireOperator(role, send) {
			return
		}
		var payload loadCSVPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid loadcsv payload")
			return
		}
		questions, rowErrs, err := bank.ParseString(payload.CSV)
		if err != nil {
			send <- errorMessage(err.Error())
			return
		}
		h.session.LoadQuestions(questions)
		send <- outboundMessage[any]{Type: "bankLoaded", Payload: bankLoadedPayload{
			Count:  len(questions),
			Errors: rowErrs,
		}}
	case "message":
		var payload textPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid message payload")
			return
		}
		h.session.UpdateLastMessage(payload.Text)
	default:
		send <- errorMessage("unsupported message type")
	}
}

// applyLine routes a raw device line through the input normalizer.
// Unrecognized lines are dropped without an error reply, matching how
// serial adapters treat noise on the wire.
func (h *WSHandler) applyLine(role string, text string, send chan<- outboundMessage[any]) {
	cmd, ok := input.ParseLine(text)
	if !ok {
		return
	}
	switch cmd.Kind {
	case input.KindAdvance:
		if !requireOperator(role, send) {
			return
		}
		h.session.Advance()
	case input.KindReset:
		if !requireOperator(role, send) {
			return
		}
		h.session.Reset()
	case input.KindMarkActive:
		h.session.MarkPlayerActive(cmd.Player)
	case input.KindSubmitAnswer:
		h.session.SetPlayerAnswer(cmd.Player, cmd.Option)
	case input.KindRequestHint:
		h.session.RequestHint(cmd.Player)
	}
}

func requireOperator(role string, send chan<- outboundMessage[any]) bool {
	if role != RoleOperator {
		send <- errorMessage("operator role required")
		return false
	}
	return true
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
