package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "home_climate_relay_messages_total",
		Help: "Inbound relay messages by event and result.",
	}, []string{"event", "result"})

	connectedPeers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "home_climate_relay_connected_peers",
		Help: "Peers currently connected to the relay, by role.",
	}, []string{"role"})
)
