package handler

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/middleware"
	"github.com/noah-isme/maestro-api/internal/service"
)

const feedPingInterval = 30 * time.Second

// ScheduleFeedHandler streams committed schedule events of a semester over a websocket.
type ScheduleFeedHandler struct {
	feed      service.ScheduleFeed
	semesters service.SemesterService
	logger    zerolog.Logger
}

// NewScheduleFeedHandler constructs the handler.
func NewScheduleFeedHandler(feed service.ScheduleFeed, semesters service.SemesterService, logger zerolog.Logger) *ScheduleFeedHandler {
	return &ScheduleFeedHandler{
		feed:      feed,
		semesters: semesters,
		logger:    logger.With().Str("component", "schedule_feed_handler").Logger(),
	}
}

// Register binds the websocket route under the semesters group.
func (h *ScheduleFeedHandler) Register(router fiber.Router) {
	router.Get("/:id/feed", h.upgrade, websocket.New(h.stream))
}

func (h *ScheduleFeedHandler) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id, err := parseUintParam(c, "id")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid identifier")
	}
	if _, err := h.semesters.Get(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "failed to open schedule feed")
	}

	c.Locals("semester_id", id)
	c.Locals("correlation_id", middleware.GetCorrelationID(c))
	return c.Next()
}

func (h *ScheduleFeedHandler) stream(conn *websocket.Conn) {
	semesterID, _ := conn.Locals("semester_id").(uint)
	if semesterID == 0 {
		parsed, _ := strconv.ParseUint(conn.Params("id"), 10, 64)
		semesterID = uint(parsed)
	}

	logger := h.logger.With().Uint("semester_id", semesterID).Logger()
	if correlation, ok := conn.Locals("correlation_id").(string); ok && correlation != "" {
		logger = logger.With().Str("correlation_id", correlation).Logger()
	}

	events, unsubscribe := h.feed.Subscribe(semesterID)
	closed := make(chan struct{})
	var once sync.Once
	shutdown := func() {
		once.Do(func() {
			close(closed)
			unsubscribe()
			_ = conn.Close()
		})
	}
	defer shutdown()

	logger.Info().Msg("schedule feed connected")

	go func() {
		defer shutdown()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug().Err(err).Msg("schedule feed read loop ended")
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("schedule feed write failed")
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("schedule feed ping failed")
				return
			}
		case <-closed:
			logger.Info().Msg("schedule feed disconnected")
			return
		}
	}
}
