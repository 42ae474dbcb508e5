package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docmd_jobs_submitted_total",
		Help: "Jobs accepted by Submit.",
	})
	jobsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docmd_jobs_rejected_total",
		Help: "Submissions rejected before a job was scheduled.",
	}, []string{"reason"})
	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docmd_jobs_finished_total",
		Help: "Jobs that reached a terminal state.",
	}, []string{"status"})
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docmd_job_duration_seconds",
		Help:    "Wall-clock time from running to terminal.",
		Buckets: prometheus.DefBuckets,
	})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docmd_queue_depth",
		Help: "Jobs waiting in the worker pool queue.",
	})
	jobsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docmd_jobs_evicted_total",
		Help: "Terminal records removed by the retention sweeper.",
	})
)
