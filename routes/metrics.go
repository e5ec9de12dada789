package routes

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"initiativehub/realtime"
)

const namespace = "initiativehub"

// Metrics owns the Prometheus registry served on /metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP, websocket and change-feed collectors. hub and
// publisher may be nil.
func NewMetrics(hub *realtime.Hub, publisher *realtime.Publisher) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
	)
	if hub != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}, func() float64 { return float64(hub.ClientCount()) }))
	}
	if publisher != nil {
		m.registry.MustRegister(newDeliveryCollector(publisher))
	}
	return m
}

// Middleware records every request under its route pattern.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(c.Response().StatusCode())).Inc()
		m.duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// deliveryCollector exposes the publisher's cumulative delivery counters.
type deliveryCollector struct {
	publisher     *realtime.Publisher
	deliveredDesc *prometheus.Desc
	droppedDesc   *prometheus.Desc
}

func newDeliveryCollector(publisher *realtime.Publisher) *deliveryCollector {
	return &deliveryCollector{
		publisher: publisher,
		deliveredDesc: prometheus.NewDesc(
			namespace+"_change_events_delivered_total",
			"Change events delivered to sinks.",
			nil, nil,
		),
		droppedDesc: prometheus.NewDesc(
			namespace+"_change_events_dropped_total",
			"Change events a sink failed to accept.",
			nil, nil,
		),
	}
}

func (c *deliveryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.deliveredDesc
	ch <- c.droppedDesc
}

func (c *deliveryCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.publisher.Stats()
	ch <- prometheus.MustNewConstMetric(c.deliveredDesc, prometheus.CounterValue, float64(stats.Delivered))
	ch <- prometheus.MustNewConstMetric(c.droppedDesc, prometheus.CounterValue, float64(stats.Dropped))
}
