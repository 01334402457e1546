package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardgame"

// Metrics implements the observer hooks of the coordinator and the spectator
// hub on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	CardsPlayed      prometheus.Counter
	Damage           prometheus.Histogram
	MatchesConcluded *prometheus.CounterVec
	Resets           prometheus.Counter
	PlayRejections   *prometheus.CounterVec
	Spectators       prometheus.Gauge
	ChatMessages     prometheus.Counter
	RequestLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CardsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cards_played_total",
			Help:      "Total number of accepted card plays",
		}),
		Damage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "card_damage",
			Help:      "Damage dealt per accepted play",
			Buckets:   prometheus.LinearBuckets(0, 3, 6),
		}),
		MatchesConcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_concluded_total",
			Help:      "Concluded matches by winning side",
		}, []string{"winner"}),
		Resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Total number of match resets",
		}),
		PlayRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "play_rejections_total",
			Help:      "Rejected card plays by reason",
		}, []string{"reason"}),
		Spectators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectators",
			Help:      "Number of attached spectators",
		}),
		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Total number of chat messages published",
		}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.CardsPlayed,
		m.Damage,
		m.MatchesConcluded,
		m.Resets,
		m.PlayRejections,
		m.Spectators,
		m.ChatMessages,
		m.RequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CardPlayed(side string, damage int) {
	m.CardsPlayed.Inc()
	m.Damage.Observe(float64(damage))
}

func (m *Metrics) PlayRejected(reason string) {
	m.PlayRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) MatchConcluded(winner string) {
	m.MatchesConcluded.WithLabelValues(winner).Inc()
}

func (m *Metrics) MatchReset() {
	m.Resets.Inc()
}

func (m *Metrics) SpectatorsChanged(delta int) {
	m.Spectators.Add(float64(delta))
}

func (m *Metrics) ChatPublished() {
	m.ChatMessages.Inc()
}

// Middleware records request latency by matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestLatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
