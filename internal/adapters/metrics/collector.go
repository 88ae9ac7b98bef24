// Package metrics exports pipeline events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bft-labs/skyship/internal/app"
	"github.com/bft-labs/skyship/internal/domain"
)

const metricsNamespace = "skyship"

// Collector is a prometheus.Collector fed by the pipeline as an app.Observer.
type Collector struct {
	frames        *prometheus.CounterVec
	framesDropped *prometheus.CounterVec
	commits       *prometheus.CounterVec
	posts         prometheus.Counter
	dispatchFails *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	authors       prometheus.Gauge
	sessionState  prometheus.Gauge
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "frames_total",
				Help:      "Stream messages decoded, by message type.",
			}, []string{"type"},
		),
		framesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "frames_dropped_total",
				Help:      "Stream messages dropped before dispatch, by reason.",
			}, []string{"reason"},
		),
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "commits_total",
				Help:      "Commits seen, by whether the author has subscribers.",
			}, []string{"result"},
		),
		posts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "posts_decoded_total",
				Help:      "Post records decoded for subscribed authors.",
			},
		),
		dispatchFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dispatch_failures_total",
				Help:      "Commits that failed dispatch, by stage.",
			}, []string{"stage"},
		),
		deliveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "deliveries_total",
				Help:      "Notification attempts, by result.",
			}, []string{"result"},
		),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reloads_total",
				Help:      "Subscriber reloads, by result.",
			}, []string{"result"},
		),
		authors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "registry_authors",
				Help:      "Authors with at least one subscriber in the live snapshot.",
			},
		),
		sessionState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "session_state",
				Help:      "Stream session state: 0 connecting, 1 streaming, 2 closed, 3 failed.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.frames.Describe(ch)
	c.framesDropped.Describe(ch)
	c.commits.Describe(ch)
	c.posts.Describe(ch)
	c.dispatchFails.Describe(ch)
	c.deliveries.Describe(ch)
	c.reloads.Describe(ch)
	c.authors.Describe(ch)
	c.sessionState.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.frames.Collect(ch)
	c.framesDropped.Collect(ch)
	c.commits.Collect(ch)
	c.posts.Collect(ch)
	c.dispatchFails.Collect(ch)
	c.deliveries.Collect(ch)
	c.reloads.Collect(ch)
	c.authors.Collect(ch)
	c.sessionState.Collect(ch)
}

func (c *Collector) FrameReceived(t domain.MessageType) {
	c.frames.WithLabelValues(t.String()).Inc()
}

func (c *Collector) FrameDropped(reason string) {
	c.framesDropped.WithLabelValues(reason).Inc()
}

func (c *Collector) CommitSkipped() {
	c.commits.WithLabelValues("skipped").Inc()
}

func (c *Collector) CommitMatched(int) {
	c.commits.WithLabelValues("matched").Inc()
}

func (c *Collector) PostDecoded() {
	c.posts.Inc()
}

func (c *Collector) DeliverySucceeded() {
	c.deliveries.WithLabelValues("ok").Inc()
}

func (c *Collector) DeliveryFailed() {
	c.deliveries.WithLabelValues("failed").Inc()
}

func (c *Collector) DispatchFailed(stage string) {
	c.dispatchFails.WithLabelValues(stage).Inc()
}

func (c *Collector) ReloadSucceeded(authors int) {
	c.reloads.WithLabelValues("ok").Inc()
	c.authors.Set(float64(authors))
}

func (c *Collector) ReloadFailed() {
	c.reloads.WithLabelValues("failed").Inc()
}

func (c *Collector) SessionStateChanged(s app.SessionState) {
	c.sessionState.Set(float64(s))
}

var _ app.Observer = (*Collector)(nil)
