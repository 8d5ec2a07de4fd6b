package focus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricGazeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eyefocus",
		Name:      "gaze_events_total",
		Help:      "Inbound gaze events by kind and outcome.",
	}, []string{"kind", "result"})
	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eyefocus",
		Name:      "focus_transitions_total",
		Help:      "Focus acquisitions by origin.",
	}, []string{"source"})
	metricKeys = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eyefocus",
		Name:      "keys_total",
		Help:      "Key presses seen by the keyboard navigator, by outcome.",
	}, []string{"outcome"})
)
