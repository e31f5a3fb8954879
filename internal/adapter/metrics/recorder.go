// Package metrics records archive run metrics and exports them in the
// node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors of one archive run. It owns its registry so
// that nothing global leaks into the exported file.
type Recorder struct {
	registry *prometheus.Registry

	DaysTotal         *prometheus.CounterVec
	MessagesTotal     *prometheus.CounterVec
	ConsecutiveMisses prometheus.Gauge
	OldestDay         prometheus.Gauge
	FlushDuration     prometheus.Histogram
	FlushErrorsTotal  prometheus.Counter
}

// New creates a Recorder labelled with channel.
func New(channel string) *Recorder {
	labels := prometheus.Labels{"channel": channel}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		DaysTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chatlogs_archive_days_total",
				Help:        "Days attempted by result (found, missing).",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
		MessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "chatlogs_archive_messages_total",
				Help:        "Transcript entries by outcome (added, duplicate, filtered).",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		ConsecutiveMisses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "chatlogs_archive_consecutive_misses",
				Help:        "Consecutive missing days at the last cycle.",
				ConstLabels: labels,
			},
		),
		OldestDay: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name:        "chatlogs_archive_oldest_day_timestamp_seconds",
				Help:        "Unix time of the earliest day with a transcript seen by the run.",
				ConstLabels: labels,
			},
		),
		FlushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "chatlogs_archive_flush_duration_seconds",
				Help:        "Time spent saving the unit after a day.",
				Buckets:     []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
				ConstLabels: labels,
			},
		),
		FlushErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "chatlogs_archive_flush_errors_total",
				Help:        "Saves that failed.",
				ConstLabels: labels,
			},
		),
	}

	r.registry.MustRegister(
		r.DaysTotal,
		r.MessagesTotal,
		r.ConsecutiveMisses,
		r.OldestDay,
		r.FlushDuration,
		r.FlushErrorsTotal,
	)
	return r
}

func (r *Recorder) DayFetched(date time.Time, kept, filtered, added int) {
	r.DaysTotal.WithLabelValues("found").Inc()
	r.MessagesTotal.WithLabelValues("added").Add(float64(added))
	r.MessagesTotal.WithLabelValues("duplicate").Add(float64(kept - added))
	r.MessagesTotal.WithLabelValues("filtered").Add(float64(filtered))
	r.ConsecutiveMisses.Set(0)
	r.OldestDay.Set(float64(date.Unix()))
}

func (r *Recorder) DayMissing(date time.Time, consecutive int) {
	r.DaysTotal.WithLabelValues("missing").Inc()
	r.ConsecutiveMisses.Set(float64(consecutive))
}

func (r *Recorder) Flushed(elapsed time.Duration, err error) {
	r.FlushDuration.Observe(elapsed.Seconds())
	if err != nil {
		r.FlushErrorsTotal.Inc()
	}
}

// WriteTextfile writes the current values to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
