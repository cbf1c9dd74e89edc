package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"slides/internal/domain"
	"slides/internal/editor"
	"slides/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 20
	sendBuffer     = 64
)

// EventSlideState is sent to a client when it joins. Its data is the live slide.
const EventSlideState = "session:slide"

// Message is the WebSocket envelope in both directions. Inbound messages are
// emitted on the session bus; outbound ones are the session's notifications.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// notifications are the bus events forwarded to clients.
var notifications = map[string]bool{
	domain.EventElementCreated:      true,
	domain.EventElementsChanged:     true,
	domain.EventSelectionChanged:    true,
	domain.EventFormatChange:        true,
	domain.EventBackgroundUpdated:   true,
	domain.EventAnimationFinished:   true,
	domain.EventHistoryChanged:      true,
	domain.EventTextSelectionChange: true,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ─────────────────────────────────────────────────────────────
// Hub: one live session per slide, shared by its clients
// ─────────────────────────────────────────────────────────────

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type room struct {
	sess    *session.Session
	clients map[*client]struct{}
	off     func()
}

type hub struct {
	store  domain.SlideStore
	images editor.ImageLoader
	opts   editor.Options

	mu    sync.Mutex
	rooms map[string]*room
}

func newHub(store domain.SlideStore, images editor.ImageLoader, opts editor.Options) *hub {
	return &hub{store: store, images: images, opts: opts, rooms: make(map[string]*room)}
}

// join adds c to the slide's room, opening the session for the first client.
func (h *hub) join(ctx context.Context, slideID string, c *client) (*room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[slideID]
	if !ok {
		sess, err := session.Open(ctx, h.store, h.images, slideID, h.opts)
		if err != nil {
			return nil, err
		}
		rm = &room{sess: sess, clients: make(map[*client]struct{})}
		rm.off = sess.Bus.SubscribeAll(func(_ context.Context, event string, data any) {
			if notifications[event] {
				h.broadcast(slideID, event, data)
			}
		})
		h.rooms[slideID] = rm
		log.Printf("[WS] opened session for slide %s", slideID)
	}
	rm.clients[c] = struct{}{}
	return rm, nil
}

// leave removes c and closes the session once the room is empty.
func (h *hub) leave(slideID string, c *client) {
	h.mu.Lock()
	rm, ok := h.rooms[slideID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(rm.clients, c)
	close(c.send)
	empty := len(rm.clients) == 0
	if empty {
		delete(h.rooms, slideID)
	}
	h.mu.Unlock()

	if empty {
		rm.off()
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		rm.sess.Close(ctx)
		log.Printf("[WS] closed session for slide %s", slideID)
	}
}

// broadcast queues an event for every client of the slide. A client whose
// buffer is full misses the event.
func (h *hub) broadcast(slideID, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[WS] encode %s: %v", event, err)
		return
	}
	msg, err := json.Marshal(Message{Event: event, Data: raw})
	if err != nil {
		log.Printf("[WS] encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[slideID]
	if !ok {
		return
	}
	for c := range rm.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("[WS] client %s is slow, dropped %s", c.id, event)
		}
	}
}

// greet queues the live slide for a client that just joined.
func (h *hub) greet(c *client, sess *session.Session) {
	raw, err := json.Marshal(sess.Slide())
	if err != nil {
		log.Printf("[WS] encode slide: %v", err)
		return
	}
	msg, err := json.Marshal(Message{Event: EventSlideState, Data: raw})
	if err != nil {
		log.Printf("[WS] encode slide: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case c.send <- msg:
	default:
	}
}

func (h *hub) closeAll(ctx context.Context) {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*room)
	h.mu.Unlock()
	for id, rm := range rooms {
		rm.off()
		for c := range rm.clients {
			c.conn.Close()
		}
		rm.sess.Close(ctx)
		log.Printf("[WS] closed session for slide %s", id)
	}
}

// ─────────────────────────────────────────────────────────────
// Connection pumps
// ─────────────────────────────────────────────────────────────

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	slideID := mux.Vars(r)["slideId"]
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}
	c := &client{id: uuid.New().String(), conn: conn, send: make(chan []byte, sendBuffer)}
	rm, err := s.hub.join(r.Context(), slideID, c)
	if err != nil {
		log.Printf("[WS] open slide %s: %v", slideID, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "cannot open slide"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	log.Printf("[WS] client %s joined slide %s", c.id, slideID)

	s.hub.greet(c, rm.sess)
	go c.writePump()
	c.readPump(rm.sess)
	s.hub.leave(slideID, c)
	log.Printf("[WS] client %s left slide %s", c.id, slideID)
}

func (c *client) readPump(sess *session.Session) {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] client %s: %v", c.id, err)
			}
			return
		}
		if msg.Event == "" {
			continue
		}
		var data any
		if len(msg.Data) > 0 && string(msg.Data) != "null" {
			data = msg.Data
		}
		sess.Bus.Emit(context.Background(), msg.Event, data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
