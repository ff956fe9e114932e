// Package metrics exposes Prometheus collectors for newsdesk.
//
// Components do not import this package. They accept observer callbacks
// (ingestion.WithObserver, semantic.WithObserver, cache.WithObserver,
// agent.WithObserver, feed.WithObserver) and the Metrics methods below
// have matching signatures.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/poiesic/newsdesk/agent"
	"github.com/poiesic/newsdesk/core"
	"github.com/poiesic/newsdesk/feed"
	"github.com/poiesic/newsdesk/semantic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsdesk"

// Metrics owns a registry and the newsdesk collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	ingestions        *prometheus.CounterVec
	ingestionDuration prometheus.Histogram

	indexJobs     *prometheus.CounterVec
	indexChunks   prometheus.Counter
	indexDuration prometheus.Histogram

	cacheRequests *prometheus.CounterVec

	questions       *prometheus.CounterVec
	questionSteps   prometheus.Histogram
	questionLatency prometheus.Histogram
	capabilityCalls *prometheus.CounterVec
	withdrawals     *prometheus.CounterVec

	feedPolls    *prometheus.CounterVec
	feedIngested *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ingestions_total",
			Help: "Article ingestions by outcome.",
		}, []string{"outcome"}),
		ingestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "ingestion_duration_seconds",
			Help:    "Time from request to persisted article.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		indexJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "index_jobs_total",
			Help: "Background index jobs by outcome.",
		}, []string{"outcome"}),
		indexChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "index_chunks_total",
			Help: "Chunks written to the semantic index.",
		}),
		indexDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "index_job_duration_seconds",
			Help:    "Time to chunk, embed and write one document.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "completion_cache_requests_total",
			Help: "Completion cache lookups by result.",
		}, []string{"result"}),

		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "questions_total",
			Help: "Questions by outcome (answered or fallback).",
		}, []string{"outcome"}),
		questionSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "question_steps",
			Help:    "Capability calls per question.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
		questionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "question_duration_seconds",
			Help:    "Time to answer a question.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		capabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "capability_calls_total",
			Help: "Router capability invocations by capability and outcome.",
		}, []string{"capability", "outcome"}),
		withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "capability_withdrawals_total",
			Help: "Capabilities withdrawn after repeated failures.",
		}, []string{"capability"}),

		feedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "feed_polls_total",
			Help: "Feed polls by feed and outcome.",
		}, []string{"feed", "outcome"}),
		feedIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "feed_items_ingested_total",
			Help: "Feed items ingested by feed.",
		}, []string{"feed"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ingestions, m.ingestionDuration,
		m.indexJobs, m.indexChunks, m.indexDuration,
		m.cacheRequests,
		m.questions, m.questionSteps, m.questionLatency, m.capabilityCalls, m.withdrawals,
		m.feedPolls, m.feedIngested,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveIngestion matches ingestion.WithObserver.
func (m *Metrics) ObserveIngestion(err error, elapsed time.Duration) {
	m.ingestions.WithLabelValues(ingestionOutcome(err)).Inc()
	if err == nil {
		m.ingestionDuration.Observe(elapsed.Seconds())
	}
}

func ingestionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, core.ErrInvalidArticle), errors.Is(err, core.ErrInvalidSource):
		return "invalid"
	case errors.Is(err, core.ErrFetch):
		return "fetch_error"
	case errors.Is(err, core.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}

// ObserveIndexJob matches semantic.WithObserver.
func (m *Metrics) ObserveIndexJob(result semantic.JobResult) {
	if result.Err != nil {
		m.indexJobs.WithLabelValues("error").Inc()
		return
	}
	m.indexJobs.WithLabelValues("ok").Inc()
	m.indexChunks.Add(float64(result.Chunks))
	m.indexDuration.Observe(result.Elapsed.Seconds())
}

// ObserveCache matches cache.WithObserver.
func (m *Metrics) ObserveCache(hit bool) {
	if hit {
		m.cacheRequests.WithLabelValues("hit").Inc()
	} else {
		m.cacheRequests.WithLabelValues("miss").Inc()
	}
}

// ObserveQuestion matches agent.WithObserver.
func (m *Metrics) ObserveQuestion(trace *agent.Trace) {
	if trace == nil {
		return
	}
	if trace.Fallback {
		m.questions.WithLabelValues("fallback").Inc()
	} else {
		m.questions.WithLabelValues("answered").Inc()
	}
	m.questionSteps.Observe(float64(len(trace.Steps)))
	m.questionLatency.Observe(trace.Elapsed.Seconds())

	for _, step := range trace.Steps {
		outcome := "ok"
		if step.Err != nil {
			outcome = "error"
		}
		m.capabilityCalls.WithLabelValues(step.Call.Capability, outcome).Inc()
	}
	for _, name := range trace.Withdrawn {
		m.withdrawals.WithLabelValues(name).Inc()
	}
}

// ObserveFeedPoll matches feed.WithObserver.
func (m *Metrics) ObserveFeedPoll(report *feed.Report) {
	if report == nil {
		return
	}
	if report.Err != nil {
		m.feedPolls.WithLabelValues(report.Feed, "error").Inc()
		return
	}
	m.feedPolls.WithLabelValues(report.Feed, "ok").Inc()
	m.feedIngested.WithLabelValues(report.Feed).Add(float64(report.Ingested))
}

// ObserveHTTP records one served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
