// Package metricsvc exposes folio activity as prometheus metrics.
package metricsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kampus/backend/core/folio"
)

// FolioAllocations counts reserved folios by series.
var FolioAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kampus",
	Subsystem: "folio",
	Name:      "allocations_total",
	Help:      "Total folios reserved, by series.",
}, []string{"series"})

// FoliosReassigned counts expenses renumbered by the bulk reassignment.
var FoliosReassigned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "kampus",
	Subsystem: "folio",
	Name:      "reassigned_total",
	Help:      "Total expense folios changed by bulk reassignment.",
})

type FolioObserver struct{}

var _ folio.Observer = FolioObserver{}

func NewFolioObserver() FolioObserver {
	return FolioObserver{}
}

func (FolioObserver) FolioAllocated(series folio.Series) {
	FolioAllocations.WithLabelValues(string(series)).Inc()
}

func (FolioObserver) FoliosReassigned(n int) {
	if n > 0 {
		FoliosReassigned.Add(float64(n))
	}
}
