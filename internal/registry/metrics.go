package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eyefocus",
		Name:      "registry_rebuilds_total",
		Help:      "Number of watch set rebuilds.",
	})
	metricWatchables = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eyefocus",
		Name:      "registry_watchables",
		Help:      "Watchable elements in the current watch set.",
	})
)
