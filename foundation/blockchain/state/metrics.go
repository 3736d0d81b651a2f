package state

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksAccepted      prometheus.Counter
	blocksRejected      *prometheus.CounterVec
	blocksMined         prometheus.Counter
	chainHeight         prometheus.Gauge
	pendingTransactions prometheus.Gauge
	messagesReceived    *prometheus.CounterVec
	messagesPublished   *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

// initPrometheusMetrics registers the ledger metrics once per process, so
// several nodes can run in the same process.
func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	blocksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "state",
		Name:      "blocks_accepted_total",
		Help:      "Number of blocks added to the block tree",
	})

	blocksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "state",
		Name:      "blocks_rejected_total",
		Help:      "Number of blocks rejected, by the rule they failed",
	}, []string{"reason"})

	blocksMined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "state",
		Name:      "blocks_mined_total",
		Help:      "Number of blocks mined by this node",
	})

	chainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "treeledger",
		Subsystem: "state",
		Name:      "chain_height",
		Help:      "Height of the max height block",
	})

	pendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "treeledger",
		Subsystem: "state",
		Name:      "pending_transactions",
		Help:      "Number of transactions waiting for a block",
	})

	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "peer",
		Name:      "messages_received_total",
		Help:      "Number of peer messages handled, by kind",
	}, []string{"kind"})

	messagesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "treeledger",
		Subsystem: "peer",
		Name:      "messages_published_total",
		Help:      "Number of peer messages published, by kind",
	}, []string{"kind"})
}
