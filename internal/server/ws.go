package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/csexpert/csexpert/internal/chat"
	"github.com/csexpert/csexpert/internal/conversation"
	"github.com/csexpert/csexpert/internal/docstore"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// CORS is enforced at the router; origins allowed there may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is one inbound WebSocket frame.
type wsMessage struct {
	Message string `json:"message"`
}

// handleChatWS runs a persistent chat conversation over a WebSocket. Each
// connection owns a session; the optional session_id query parameter resumes
// an existing one.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := s.sessions.getOrCreate(r.URL.Query().Get("session_id"))

	// Tell the client its session ID up front so reconnects can resume.
	if err := conn.WriteJSON(map[string]string{"session_id": sess.id}); err != nil {
		return
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read failed: %v", err)
			}
			return
		}
		if strings.TrimSpace(msg.Message) == "" {
			if err := conn.WriteJSON(map[string]string{"error": "message must not be empty"}); err != nil {
				return
			}
			continue
		}

		resp, err := s.chat.Ask(r.Context(), chat.Request{Message: msg.Message, History: sess.turns()})
		if err != nil {
			if writeErr := conn.WriteJSON(s.wsErrorResponse(sess, msg.Message, err)); writeErr != nil {
				return
			}
			continue
		}

		sess.append(
			conversation.Turn{Sender: conversation.SenderUser, Content: msg.Message},
			conversation.Turn{
				Sender:     conversation.SenderAssistant,
				Content:    resp.Answer,
				Sources:    resp.Sources,
				TopCourses: resp.TopCourses,
			},
		)

		if err := conn.WriteJSON(chatResponse{
			Answer:       resp.Answer,
			ContentType:  resp.ContentType,
			Sources:      orEmptyCitations(resp.Sources),
			TopCourses:   resp.TopCourses,
			NumRetrieved: resp.NumRetrieved,
			Cached:       resp.Cached,
			SessionID:    sess.id,
			Success:      true,
		}); err != nil {
			return
		}
	}
}

// wsErrorResponse mirrors writeChatError for the WebSocket transport.
func (s *Server) wsErrorResponse(sess *session, message string, err error) chatResponse {
	var synErr *chat.SynthesisError
	switch {
	case errors.Is(err, docstore.ErrStoreUnavailable):
		return chatResponse{
			Answer:    chat.NotReadyAnswer(),
			Sources:   []conversation.Citation{},
			SessionID: sess.id,
		}
	case errors.As(err, &synErr):
		log.Printf("server: synthesis failed: %v", err)
		sess.append(
			conversation.Turn{Sender: conversation.SenderUser, Content: message},
			conversation.Turn{Sender: conversation.SenderAssistant, Content: chat.FallbackAnswer()},
		)
		return chatResponse{
			Answer:    chat.FallbackAnswer(),
			Sources:   []conversation.Citation{},
			SessionID: sess.id,
		}
	default:
		log.Printf("server: chat failed: %v", err)
		return chatResponse{
			Answer:    chat.FallbackAnswer(),
			Sources:   []conversation.Citation{},
			SessionID: sess.id,
		}
	}
}
