package wsbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectedClients tracks currently connected dashboard clients.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crossmkt_arb_wsbridge_connected_clients",
		Help: "Number of connected dashboard WebSocket clients",
	})

	// BroadcastsTotal tracks broadcast messages sent, by kind.
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crossmkt_arb_wsbridge_broadcasts_total",
			Help: "Total number of dashboard broadcast messages sent",
		},
		[]string{"kind"},
	)

	// ClientsDroppedTotal tracks clients disconnected for a full send buffer.
	ClientsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossmkt_arb_wsbridge_clients_dropped_total",
		Help: "Total number of dashboard clients dropped for a full send buffer",
	})
)
