package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"map18xx.dev/internal/protocol"
	"map18xx.dev/internal/session"
)

type Server struct {
	store    *session.Store
	log      *log.Logger
	maxQueue int

	upgrader websocket.Upgrader
}

func NewServer(store *session.Store, maxQueue int, logger *log.Logger) *Server {
	if maxQueue <= 0 {
		maxQueue = 64
	}
	return &Server{
		store:    store,
		log:      logger,
		maxQueue: maxQueue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, client := s.handshake(conn)
		if sess == nil {
			return
		}
		defer sess.Leave(client)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-client.Out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			if err := protocol.Validate(protocol.TypeAct, msg); err != nil {
				s.reply(client, protocol.Reject("", protocol.ErrProtoBadRequest, err.Error()))
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				s.reply(client, protocol.Reject("", protocol.ErrProtoBadRequest, err.Error()))
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				s.reply(client, protocol.Reject(act.ID, protocol.ErrProtoBadRequest, "bad protocol_version"))
				continue
			}
			ack, state := sess.Submit(ctx, act.ID, act.Action)
			s.reply(client, ack)
			if state == nil {
				continue
			}
			s.log.Printf("session %s: %s (seq %d)", sess.ID, act.Action, ack.Seq)
			b, err := json.Marshal(state)
			if err != nil {
				s.log.Printf("session %s: encode state: %v", sess.ID, err)
				continue
			}
			sess.Broadcast(b)
		}
	}
}

func (s *Server) reply(c *session.Client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.Out <- b:
	default:
		// Drop if the client is not reading; it will get the next STATE.
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session.Session, *session.Client) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil, nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		_ = writeJSON(conn, errorMsg(protocol.ErrProtoBadRequest, err.Error()))
		closeWith(conn, "bad HELLO")
		return nil, nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil, nil
	}

	sess, err := s.store.Open(hello.Session, hello.Game)
	if err != nil {
		s.log.Printf("open session %s: %v", hello.Session, err)
		_ = writeJSON(conn, errorMsg(protocol.ErrSessionNotFound, err.Error()))
		closeWith(conn, "session unavailable")
		return nil, nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > s.maxQueue {
		maxQ = s.maxQueue
	}
	client := &session.Client{Out: make(chan []byte, maxQ)}

	welcome, state, err := sess.Join(client)
	if err != nil {
		_ = writeJSON(conn, errorMsg(protocol.ErrInternal, err.Error()))
		return nil, nil
	}
	// Send welcome + current board immediately.
	if err := writeJSON(conn, welcome); err != nil {
		sess.Leave(client)
		return nil, nil
	}
	if err := writeJSON(conn, state); err != nil {
		sess.Leave(client)
		return nil, nil
	}
	s.log.Printf("session %s: client joined (%d connected)", sess.ID, sess.Clients())
	return sess, client
}

func errorMsg(code, message string) protocol.ErrorMsg {
	return protocol.ErrorMsg{Type: protocol.TypeError, ProtocolVersion: protocol.Version, Code: code, Message: message}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
