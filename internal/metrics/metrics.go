// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus instruments for the generation
// pipeline, the wizard worker and the HTTP API.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"postforge/internal/pipeline"
)

// Worker job outcomes.
const (
	JobCompleted    = "completed"
	JobRetried      = "retried"
	JobDeadLettered = "dead_lettered"
)

// Metrics holds every instrument. It implements pipeline.Observer.
type Metrics struct {
	PipelineAttempts      *prometheus.CounterVec
	PipelineRetries       *prometheus.CounterVec
	PipelineCallDuration  *prometheus.HistogramVec
	PipelineStageDuration *prometheus.HistogramVec

	WorkerJobs        *prometheus.CounterVec
	WorkerJobDuration prometheus.Histogram
	WorkerJobsActive  prometheus.Gauge

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// aiBuckets cover fast text completions up to slow image renders.
var aiBuckets = []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PipelineAttempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_attempts_total",
				Help: "Total number of provider calls made by pipeline stages",
			},
			[]string{"stage", "outcome"},
		),
		PipelineRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_retries_total",
				Help: "Total number of retries scheduled after transient failures",
			},
			[]string{"stage"},
		),
		PipelineCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_call_duration_seconds",
				Help:    "Duration of a single provider call in seconds",
				Buckets: aiBuckets,
			},
			[]string{"stage"},
		),
		PipelineStageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Duration of a pipeline stage including retries in seconds",
				Buckets: aiBuckets,
			},
			[]string{"stage", "outcome"},
		),
		WorkerJobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_jobs_total",
				Help: "Total number of wizard jobs processed by the worker",
			},
			[]string{"outcome"},
		),
		WorkerJobDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "worker_job_duration_seconds",
				Help:    "Duration of wizard job processing in seconds",
				Buckets: aiBuckets,
			},
		),
		WorkerJobsActive: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "worker_jobs_active",
				Help: "Number of wizard jobs currently being processed",
			},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Observe records a pipeline event.
func (m *Metrics) Observe(_ context.Context, e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventAttempt:
		m.PipelineAttempts.WithLabelValues(e.Stage, outcome(e.Err)).Inc()
		m.PipelineCallDuration.WithLabelValues(e.Stage).Observe(e.Duration.Seconds())
	case pipeline.EventRetry:
		m.PipelineRetries.WithLabelValues(e.Stage).Inc()
	case pipeline.EventDone:
		m.PipelineStageDuration.WithLabelValues(e.Stage, outcome(e.Err)).Observe(e.Duration.Seconds())
	}
}

// JobStarted marks a worker job as active. The returned func records the
// outcome and duration when the job ends.
func (m *Metrics) JobStarted() func(outcome string) {
	start := time.Now()
	m.WorkerJobsActive.Inc()
	return func(outcome string) {
		m.WorkerJobsActive.Dec()
		m.WorkerJobs.WithLabelValues(outcome).Inc()
		m.WorkerJobDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveHTTP records one served request. route is the chi route pattern,
// not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
