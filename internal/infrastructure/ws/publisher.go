package ws

import (
	"github.com/xenitV1/owl-chat/internal/infrastructure/metrics"
)

// Publisher fans an event out to every connection joined to a room.
// The local implementation delivers in-process; a bus-backed one relays
// through a broker so peer instances can deliver to their own
// connections. Membership, presence and typing logic never see the
// difference.
type Publisher interface {
	Publish(roomID string, evt *ServerEvent, excludeConns ...string)
}

// LocalPublisher delivers to connections registered in this process.
type LocalPublisher struct {
	registry *Registry
}

func NewLocalPublisher(registry *Registry) *LocalPublisher {
	return &LocalPublisher{registry: registry}
}

func (p *LocalPublisher) Publish(roomID string, evt *ServerEvent, excludeConns ...string) {
	metrics.BroadcastsTotal.WithLabelValues(evt.Event).Inc()
	p.registry.Broadcast(roomID, evt, excludeConns...)
}
