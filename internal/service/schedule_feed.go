package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/maestro-api/internal/dto"
	"github.com/noah-isme/maestro-api/internal/models"
	"github.com/noah-isme/maestro-api/internal/observability"
)

const (
	feedBufferSize = 32
	feedRecentSize = 512
)

// ScheduleFeed fans committed schedule events out to live subscribers on this node and to peers.
type ScheduleFeed interface {
	Publish(ctx context.Context, event models.ScheduleEvent)
	Subscribe(semesterID uint) (<-chan dto.ScheduleEventMessage, func())
	Start(ctx context.Context)
}

type scheduleFeed struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *feedBroker
	nodeID       string
}

type feedEnvelope struct {
	Source string                   `json:"source"`
	Event  dto.ScheduleEventMessage `json:"event"`
	SentAt time.Time                `json:"sent_at"`
}

type feedBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.ScheduleEventMessage]struct{}
	recent      map[uint]struct{}
	order       []uint
}

// NewScheduleFeed constructs the feed. Either transport may be nil.
func NewScheduleFeed(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) ScheduleFeed {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &scheduleFeed{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "schedule_feed").Logger(),
		broker: &feedBroker{
			subscribers: make(map[uint]map[chan dto.ScheduleEventMessage]struct{}),
			recent:      make(map[uint]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (f *scheduleFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisChannel != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		go f.consumeNATS(ctx)
	}
}

func (f *scheduleFeed) Publish(ctx context.Context, event models.ScheduleEvent) {
	message := dto.NewScheduleEventMessage(event)
	f.broker.broadcast(message)
	observability.ScheduleEventsPublished().WithLabelValues(message.Kind).Inc()

	if err := f.publish(ctx, message); err != nil {
		f.logger.Warn().Err(err).Uint("event_id", message.ID).Msg("failed to publish schedule event to peers")
	}
}

func (f *scheduleFeed) Subscribe(semesterID uint) (<-chan dto.ScheduleEventMessage, func()) {
	channel := make(chan dto.ScheduleEventMessage, feedBufferSize)

	f.broker.subscribe(semesterID, channel)
	observability.ScheduleFeedClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.broker.unsubscribe(semesterID, channel)
			observability.ScheduleFeedClients().Dec()
		})
	}

	return channel, cleanup
}

func (f *scheduleFeed) publish(ctx context.Context, message dto.ScheduleEventMessage) error {
	envelope := feedEnvelope{
		Source: f.nodeID,
		Event:  message,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if f.redis != nil && f.redisChannel != "" {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			return err
		}
	}

	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (f *scheduleFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			f.logger.Error().Err(err).Msg("schedule redis subscription closed")
			return
		}
		f.handleEnvelope([]byte(msg.Payload))
	}
}

func (f *scheduleFeed) consumeNATS(ctx context.Context) {
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEnvelope(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to schedule nats subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain schedule nats subscription")
		}
	}()
}

func (f *scheduleFeed) handleEnvelope(payload []byte) {
	var envelope feedEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		f.logger.Warn().Err(err).Msg("invalid schedule event payload")
		return
	}

	if envelope.Source == f.nodeID {
		return
	}

	f.broker.broadcast(envelope.Event)
}

func (b *feedBroker) subscribe(semesterID uint, ch chan dto.ScheduleEventMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[semesterID]; !exists {
		b.subscribers[semesterID] = make(map[chan dto.ScheduleEventMessage]struct{})
	}
	b.subscribers[semesterID][ch] = struct{}{}
}

func (b *feedBroker) unsubscribe(semesterID uint, ch chan dto.ScheduleEventMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[semesterID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, semesterID)
		}
	}
}

// broadcast delivers an event once; the same event may arrive through both Redis and NATS.
func (b *feedBroker) broadcast(message dto.ScheduleEventMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if message.ID != 0 {
		if _, seen := b.recent[message.ID]; seen {
			return
		}
		b.recent[message.ID] = struct{}{}
		b.order = append(b.order, message.ID)
		if len(b.order) > feedRecentSize {
			delete(b.recent, b.order[0])
			b.order = b.order[1:]
		}
	}

	for ch := range b.subscribers[message.SemesterID] {
		select {
		case ch <- message:
		default:
		}
	}
}
