// Package metrics exposes worker pool statistics as Prometheus metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jzx17/drainpool/pkg/types"
)

// StatsProvider is anything that can report pool statistics. *worker.Pool
// satisfies it.
type StatsProvider interface {
	Stats() types.PoolStats
}

// Collector implements prometheus.Collector over a StatsProvider. The pool
// keeps its counters in worker-local atomics, so the collector reads them
// on scrape instead of duplicating counter state.
type Collector struct {
	provider StatsProvider

	poolSize      *prometheus.Desc
	activeWorkers *prometheus.Desc
	queuedTasks   *prometheus.Desc
	submitted     *prometheus.Desc
	completed     *prometheus.Desc
	failed        *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector for the given pool. The namespace
// prefixes every metric name and may be empty.
func NewCollector(provider StatsProvider, namespace string) *Collector {
	return &Collector{
		provider: provider,
		poolSize: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "workers"),
			"Number of workers in the pool.",
			nil, nil,
		),
		activeWorkers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "active_workers"),
			"Number of workers currently executing a task.",
			nil, nil,
		),
		queuedTasks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "queued_tasks"),
			"Number of tasks waiting in the queue.",
			nil, nil,
		),
		submitted: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tasks_submitted_total"),
			"Total number of tasks accepted by Submit.",
			nil, nil,
		),
		completed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tasks_completed_total"),
			"Total number of tasks that ran without error.",
			nil, nil,
		),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "pool", "tasks_failed_total"),
			"Total number of tasks that returned an error or panicked.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolSize
	ch <- c.activeWorkers
	ch <- c.queuedTasks
	ch <- c.submitted
	ch <- c.completed
	ch <- c.failed
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.provider.Stats()

	ch <- prometheus.MustNewConstMetric(c.poolSize, prometheus.GaugeValue, float64(stats.PoolSize))
	ch <- prometheus.MustNewConstMetric(c.activeWorkers, prometheus.GaugeValue, float64(stats.ActiveWorkers))
	ch <- prometheus.MustNewConstMetric(c.queuedTasks, prometheus.GaugeValue, float64(stats.QueuedTasks))
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(stats.TotalSubmitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(stats.TotalCompleted))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(stats.TotalFailed))
}
