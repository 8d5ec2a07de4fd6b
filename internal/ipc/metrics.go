package ipc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eyefocus",
		Name:      "tracker_clients",
		Help:      "Connected websocket trackers.",
	})
	metricMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eyefocus",
		Name:      "tracker_messages_total",
		Help:      "Inbound tracker messages by transport and channel.",
	}, []string{"transport", "channel"})
)
