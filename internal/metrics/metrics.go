package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the simulator's Prometheus collectors.
type Metrics struct {
	Trades         *prometheus.CounterVec
	PriceSteps     prometheus.Counter
	SnapshotSaves  *prometheus.CounterVec
	Cash           prometheus.Gauge
	TotalValue     prometheus.Gauge
	PositionsCount prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfoliosim_trades_total",
				Help: "Buy and sell attempts by side and result",
			},
			[]string{"side", "result"},
		),
		PriceSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfoliosim_price_steps_total",
			Help: "Number of market price steps taken",
		}),
		SnapshotSaves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfoliosim_snapshot_saves_total",
				Help: "Snapshot save attempts by result",
			},
			[]string{"result"},
		),
		Cash: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfoliosim_cash",
			Help: "Current portfolio cash balance",
		}),
		TotalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfoliosim_total_value",
			Help: "Current portfolio value (cash plus priced positions)",
		}),
		PositionsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "portfoliosim_positions",
			Help: "Number of open positions",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Trades, m.PriceSteps, m.SnapshotSaves, m.Cash, m.TotalValue, m.PositionsCount)
	return m
}

// Handler serves the registered collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
