package smartsock

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a Prometheus collector bundle fed from Connection.Stats()
// and the socket's framing-validation path. It is created per SmartSocket
// and can be registered with any prometheus.Registerer the application
// already runs.
type Metrics struct {
	badPacketCount prometheus.Counter
	liveConns      prometheus.Gauge
	sentTotal      *prometheus.GaugeVec
	recvTotal      *prometheus.GaugeVec
	ackdTotal      *prometheus.GaugeVec
	avgRTTMillis   *prometheus.GaugeVec
}

func newMetrics(s *SmartSocket) *Metrics {
	labels := prometheus.Labels{"local_addr": s.LocalAddr().String()}
	constLabels := prometheus.Labels{}
	for k, v := range labels {
		constLabels[k] = v
	}
	return &Metrics{
		badPacketCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "smartsock_bad_packets_total",
			Help:        "Datagrams rejected by framing validation.",
			ConstLabels: constLabels,
		}),
		liveConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "smartsock_live_connections",
			Help:        "Connections not yet marked dead.",
			ConstLabels: constLabels,
		}),
		sentTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "smartsock_connection_sent_total",
			Help:        "Packets sent per connection.",
			ConstLabels: constLabels,
		}, []string{"peer"}),
		recvTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "smartsock_connection_recv_total",
			Help:        "Packets received per connection.",
			ConstLabels: constLabels,
		}, []string{"peer"}),
		ackdTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "smartsock_connection_ackd_total",
			Help:        "Packets confirmed delivered per connection.",
			ConstLabels: constLabels,
		}, []string{"peer"}),
		avgRTTMillis: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "smartsock_connection_avg_rtt_ms",
			Help:        "Smoothed round-trip estimate per connection, in milliseconds.",
			ConstLabels: constLabels,
		}, []string{"peer"}),
	}
}

// Collectors returns every metric so callers can register them:
// registry.MustRegister(socket.Metrics().Collectors()...)
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.badPacketCount, m.liveConns, m.sentTotal, m.recvTotal, m.ackdTotal, m.avgRTTMillis,
	}
}

func (m *Metrics) recordBadPacket() {
	m.badPacketCount.Inc()
}

func (m *Metrics) observeConnection(conn *Connection) {
	stats := conn.Stats()
	peer := conn.Peer().String()
	m.sentTotal.WithLabelValues(peer).Set(float64(stats.SentCount))
	m.recvTotal.WithLabelValues(peer).Set(float64(stats.RecvCount))
	m.ackdTotal.WithLabelValues(peer).Set(float64(stats.AckdCount))
	m.avgRTTMillis.WithLabelValues(peer).Set(float64(stats.AvgRTT.Milliseconds()))
}

// Metrics returns the socket's Prometheus collector bundle.
func (s *SmartSocket) Metrics() *Metrics {
	return s.metrics
}
