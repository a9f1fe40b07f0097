package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nomorewaste",
		Subsystem: "realtime",
		Name:      "sessions_active",
		Help:      "Connected feed sessions.",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nomorewaste",
		Subsystem: "realtime",
		Name:      "events_published_total",
		Help:      "Change events handed to the hub, by table.",
	}, []string{"table"})

	eventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nomorewaste",
		Subsystem: "realtime",
		Name:      "events_delivered_total",
		Help:      "Change events queued to a session.",
	})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nomorewaste",
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Change events dropped because a session queue was full.",
	})
)
