package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "owlchat_ws_connections",
		Help: "Current number of live websocket connections",
	})
	OnlineUsers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "owlchat_online_users",
		Help: "Current number of distinct online users per room",
	}, []string{"room"})
	TypingIndicators = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "owlchat_typing_indicators",
		Help: "Current number of active typing indicators",
	})
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "owlchat_messages_total",
		Help: "Total number of chat messages broadcast",
	})
	MessagesBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "owlchat_messages_blocked_total",
		Help: "Total number of messages rejected by the content filter",
	})
	BroadcastsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "owlchat_broadcasts_total",
		Help: "Total number of room broadcasts by event type",
	}, []string{"event"})
	DroppedSendsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "owlchat_dropped_sends_total",
		Help: "Total number of per-connection sends dropped because the send buffer was full",
	})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		OnlineUsers,
		TypingIndicators,
		MessagesTotal,
		MessagesBlockedTotal,
		BroadcastsTotal,
		DroppedSendsTotal,
	)
}
