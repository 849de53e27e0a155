package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lseq_ops_applied_total",
		Help: "Ops applied to server replicas",
	}, []string{"kind", "changed"})

	opsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lseq_ops_rejected_total",
		Help: "Op batches rejected as malformed",
	})

	documentDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lseq_document_depth",
		Help: "Deepest identifier stored per document",
	}, []string{"doc"})

	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lseq_connected_clients",
		Help: "Open websocket clients",
	})
)
