// Package metrics holds the archive's domain counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Delete outcomes.
const (
	DeleteDone        = "done"
	DeletePending     = "pending"
	DeleteCompensated = "compensated"
	DeleteSwept       = "swept"
)

// Archive counts what happens to documents. A nil *Archive records nothing.
type Archive struct {
	recordsCreated *prometheus.CounterVec
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Counter
	deletes        *prometheus.CounterVec
}

// NewArchive registers the archive counters on reg.
func NewArchive(reg prometheus.Registerer) (*Archive, error) {
	m := &Archive{
		recordsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sipeta_records_created_total",
				Help: "Archived records inserted, by category.",
			},
			[]string{"category"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sipeta_uploads_total",
				Help: "File uploads by result.",
			},
			[]string{"status"},
		),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sipeta_upload_bytes_total",
			Help: "Bytes handed to the object store.",
		}),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sipeta_deletes_total",
				Help: "Record deletions by outcome.",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{m.recordsCreated, m.uploads, m.uploadBytes, m.deletes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Archive) RecordCreated(category string) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(category).Inc()
}

// Upload records one upload attempt; status is "success", "rejected" or "failed".
func (m *Archive) Upload(status string, bytes int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(status).Inc()
	if bytes > 0 {
		m.uploadBytes.Add(float64(bytes))
	}
}

func (m *Archive) Delete(outcome string) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(outcome).Inc()
}
