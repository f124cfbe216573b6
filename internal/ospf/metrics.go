package ospf

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the timer loop and receive
// handlers update. The shape mirrors the teacher pack's
// m-lab/tcp-info/metrics package: one promauto constructor per instrument,
// gathered into a struct passed around rather than left as package
// globals, so a test can register its own registry.
type Metrics struct {
	Ticks             prometheus.Counter
	NeighborUp        prometheus.Counter
	NeighborDown      prometheus.Counter
	RoutesInvalidated prometheus.Counter
	DroppedPackets    *prometheus.CounterVec
	LSDBSize          prometheus.Gauge
}

// NewMetrics registers the engine's instruments against reg and returns
// them. Pass prometheus.NewRegistry() in tests to avoid colliding with the
// default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "ospf_ticks_total",
			Help: "Number of timer engine ticks processed.",
		}),
		NeighborUp: f.NewCounter(prometheus.CounterOpts{
			Name: "ospf_neighbor_up_total",
			Help: "Number of neighbor up transitions observed.",
		}),
		NeighborDown: f.NewCounter(prometheus.CounterOpts{
			Name: "ospf_neighbor_down_total",
			Help: "Number of neighbor down transitions observed.",
		}),
		RoutesInvalidated: f.NewCounter(prometheus.CounterOpts{
			Name: "ospf_routes_invalidated_total",
			Help: "Number of routing table entries marked with the infinity metric.",
		}),
		DroppedPackets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ospf_dropped_packets_total",
			Help: "Number of received OSPF packets dropped, by reason.",
		}, []string{"reason"}),
		LSDBSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "ospf_lsdb_entries",
			Help: "Current number of entries in the link-state database.",
		}),
	}
}
