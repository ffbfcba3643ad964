package metrics

import (
	"context"
	"fmt"

	"github.com/presentai/presentai/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type jobStatsCollector struct {
	store        store.Store
	totalJobs    *prometheus.Desc
	jobsByStatus *prometheus.Desc
	totalReports *prometheus.Desc
}

// NewJobStatsCollector builds a collector that reads job counts from the
// store on every scrape.
func NewJobStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_jobs_%s", presentai, name)
	}

	return &jobStatsCollector{
		store: s,
		totalJobs: prometheus.NewDesc(
			fqName("total"),
			"Total number of analysis jobs.",
			nil,
			prometheus.Labels{},
		),
		jobsByStatus: prometheus.NewDesc(
			fqName("by_status_total"),
			"Total number of jobs by lifecycle status.",
			[]string{"status"},
			prometheus.Labels{},
		),
		totalReports: prometheus.NewDesc(
			fqName("reports_total"),
			"Total number of persisted report documents.",
			nil,
			prometheus.Labels{},
		),
	}
}

func (c *jobStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalJobs
	ch <- c.jobsByStatus
	ch <- c.totalReports
}

// Collect implements Collector.
func (c *jobStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats, err := c.store.Statistics(context.Background())
	if err != nil {
		zap.S().Named("job_collector").Errorf("failed to collect job statistics: %s", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.totalJobs, prometheus.GaugeValue, float64(stats.Total))
	ch <- prometheus.MustNewConstMetric(c.totalReports, prometheus.GaugeValue, float64(stats.TotalReports))

	for status, total := range stats.TotalByStatus {
		ch <- prometheus.MustNewConstMetric(c.jobsByStatus, prometheus.GaugeValue, float64(total), status)
	}
}
