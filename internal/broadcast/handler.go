package broadcast

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler bridges websocket clients onto broadcaster topics.
type StreamHandler struct {
	broadcaster *Broadcaster
	logger      *zap.SugaredLogger
}

func NewStreamHandler(b *Broadcaster, logger *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{broadcaster: b, logger: logger}
}

// Stream upgrades the connection and pumps events for the requested topic
// until the client disconnects. Topic defaults to the global feed; per-crisis
// and per-request topics are addressed as "crisis:<id>" / "sos:<id>".
func (h *StreamHandler) Stream(c *gin.Context) {
	topic := c.Query("topic")
	if topic == "" {
		topic = TopicGlobal
	}
	if !validTopic(topic) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unknown topic"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	sub := h.broadcaster.Subscribe(topic)
	defer h.broadcaster.Unsubscribe(sub)
	defer conn.Close()

	// Reader: only used to observe close and pong frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func validTopic(topic string) bool {
	if topic == TopicGlobal {
		return true
	}
	for _, prefix := range []string{"crisis:", "sos:"} {
		if strings.HasPrefix(topic, prefix) && len(topic) > len(prefix) {
			return true
		}
	}
	return false
}

func RegisterRoutes(r *gin.Engine, handler *StreamHandler) {
	r.GET("/api/v1/stream", handler.Stream)
}
