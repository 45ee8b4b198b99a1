package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/unibus-go-api/internal/dto"
	"github.com/noah-isme/unibus-go-api/internal/observability"
)

const scanEventBufferSize = 16

// MonitorService fans accepted scans out to connected live monitors. Events
// cross node boundaries over NATS so every API instance sees every scan.
type MonitorService interface {
	ScanPublisher
	Subscribe() (<-chan dto.ScanEvent, func())
	Start(ctx context.Context)
}

type monitorService struct {
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *scanBroker
	nodeID      string
}

type scanEventEnvelope struct {
	Source string        `json:"source"`
	Event  dto.ScanEvent `json:"event"`
	SentAt time.Time     `json:"sent_at"`
}

type scanBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.ScanEvent]struct{}
}

// NewMonitorService constructs the monitor fanout. A nil NATS connection
// keeps the fanout local to this node.
func NewMonitorService(natsConn *nats.Conn, subject string, logger zerolog.Logger) MonitorService {
	return &monitorService{
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "monitor_service").Logger(),
		broker:      &scanBroker{subscribers: make(map[chan dto.ScanEvent]struct{})},
		nodeID:      uuid.NewString(),
	}
}

func (s *monitorService) Start(ctx context.Context) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}

	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to scan events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain scan event subscription")
		}
	}()
}

func (s *monitorService) PublishScan(ctx context.Context, event dto.ScanEvent) {
	s.broker.broadcast(event)

	if s.nats == nil || s.natsSubject == "" {
		return
	}

	envelope := scanEventEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode scan event")
		return
	}

	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		if !errors.Is(err, nats.ErrConnectionClosed) {
			s.logger.Warn().Err(err).Msg("failed to publish scan event")
		}
	}
}

func (s *monitorService) Subscribe() (<-chan dto.ScanEvent, func()) {
	channel := make(chan dto.ScanEvent, scanEventBufferSize)

	s.broker.subscribe(channel)
	observability.MonitorClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(channel)
		observability.MonitorClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *monitorService) handleEvent(payload []byte) {
	var envelope scanEventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid scan event payload")
		return
	}

	// Locally produced events were already broadcast at publish time.
	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *scanBroker) subscribe(channel chan dto.ScanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = struct{}{}
}

func (b *scanBroker) unsubscribe(channel chan dto.ScanEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[channel]; ok {
		delete(b.subscribers, channel)
		close(channel)
	}
}

func (b *scanBroker) broadcast(event dto.ScanEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for channel := range b.subscribers {
		select {
		case channel <- event:
		default:
			// Slow monitor; drop rather than stall the scan path.
		}
	}
}
