package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nomorewaste",
		Subsystem: "receipt",
		Name:      "extraction_seconds",
		Help:      "Time spent downscaling and extracting one receipt.",
		Buckets:   []float64{0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"outcome"})

	draftsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nomorewaste",
		Subsystem: "receipt",
		Name:      "drafts_extracted_total",
		Help:      "Draft items produced by receipt extraction.",
	})
)
