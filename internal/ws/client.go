package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/auth"
	"github.com/tableside/api/internal/enum"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must stay below pongWait
	maxMessageSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Boards authenticate with a JWT, so any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected board: a floor table board or a kitchen display.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	restaurantID uuid.UUID
	topics       topicSet
	send         chan []byte
}

// topicSet holds event type prefixes ("order", "table", ...). A nil set
// accepts every event.
type topicSet map[string]struct{}

func (s topicSet) accepts(eventType string) bool {
	if s == nil {
		return true
	}
	prefix, _, _ := strings.Cut(eventType, ".")
	_, ok := s[prefix]
	return ok
}

// boardTopics resolves what a board receives. Kitchen staff only follow
// orders. A comma separated ?topics= list narrows the set further.
func boardTopics(role, requested string) topicSet {
	var allowed topicSet
	if role == enum.UserRoleKitchen {
		allowed = topicSet{"order": {}}
	}

	var picked topicSet
	for _, t := range strings.Split(requested, ",") {
		t = strings.TrimSpace(t)
		if t == "" || !allowed.accepts(t) {
			continue
		}
		if picked == nil {
			picked = topicSet{}
		}
		picked[t] = struct{}{}
	}
	if picked == nil {
		return allowed
	}
	return picked
}

// readLoop only watches for pongs and disconnects; boards never send
// anything the server acts on.
func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("restaurant_id", c.restaurantID.String()).Msg("ws: board dropped")
			}
			return
		}
	}
}

// writeLoop drains send into the socket, batching queued events into one
// newline separated frame, and keeps the connection alive with pings.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, nil) //nolint:errcheck
				return
			}
			if err := c.writeBatch(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	return c.conn.WriteMessage(messageType, data)
}

func (c *Client) writeBatch(first []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	w.Write(first) //nolint:errcheck
	for n := len(c.send); n > 0; n-- {
		w.Write([]byte{'\n'}) //nolint:errcheck
		w.Write(<-c.send)     //nolint:errcheck
	}
	return w.Close()
}

// boardToken reads the JWT from ?token= (browsers cannot set headers on a
// websocket handshake) or from a bearer Authorization header.
func boardToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// ServeWS upgrades GET /ws/restaurants/{rid} into a board connection.
// Optional ?topics=order,table limits the events pushed.
func ServeWS(hub *Hub, jwtSecret string, w http.ResponseWriter, r *http.Request) {
	tokenStr := boardToken(r)
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateToken(jwtSecret, tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		http.Error(w, "invalid restaurant id", http.StatusBadRequest)
		return
	}
	if claims.RestaurantID != restaurantID {
		http.Error(w, "restaurant access denied", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: upgrade")
		return
	}

	client := &Client{
		hub:          hub,
		conn:         conn,
		restaurantID: restaurantID,
		topics:       boardTopics(claims.Role, r.URL.Query().Get("topics")),
		send:         make(chan []byte, sendBuffer),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	log.Debug().
		Str("restaurant_id", restaurantID.String()).
		Str("user_id", claims.UserID.String()).
		Str("role", claims.Role).
		Msg("ws: board connected")

	go client.writeLoop()
	go client.readLoop()
}
