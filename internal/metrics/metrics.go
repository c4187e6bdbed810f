package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stockhold"

// 分配结果标签
const (
	ResultSuccess      = "success"
	ResultInsufficient = "insufficient"
	ResultMissing      = "missing"
	ResultError        = "error"
)

var (
	// LedgerOperations 台账操作计数，按操作与结果区分
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Stock ledger operations by op and result.",
	}, []string{"op", "result"})

	// LedgerQuantity 台账操作数量累计
	LedgerQuantity = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "quantity_total",
		Help:      "Quantity moved by stock ledger operations.",
	}, []string{"op"})

	// Allocations 分配结果计数
	Allocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "allocator",
		Name:      "allocations_total",
		Help:      "Warehouse allocation attempts by result.",
	}, []string{"result"})

	// AllocationScanDepth 分配时扫描的仓库数
	AllocationScanDepth = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "allocator",
		Name:      "scan_depth",
		Help:      "Number of warehouses inspected per allocation.",
		Buckets:   []float64{1, 2, 3, 5, 8, 13},
	})

	// SweepRuns 过期清理执行次数
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "runs_total",
		Help:      "Expired reservation sweep runs by mode.",
	}, []string{"mode"})

	// SweepReleased 过期清理释放的购物车项数
	SweepReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "released_items_total",
		Help:      "Cart items released by the expiry sweep.",
	})

	// SweepDuration 过期清理耗时
	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Duration of expired reservation sweeps.",
		Buckets:   prometheus.DefBuckets,
	})

	// OrderSettlements 订单库存结算计数
	OrderSettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "settlements_total",
		Help:      "Order stock settlements by outcome and result.",
	}, []string{"outcome", "result"})

	// HTTPRequests HTTP 请求计数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

// ObserveLedger 记录一次台账操作
func ObserveLedger(op, result string, quantity int) {
	LedgerOperations.WithLabelValues(op, result).Inc()
	if result == ResultSuccess && quantity > 0 {
		LedgerQuantity.WithLabelValues(op).Add(float64(quantity))
	}
}

// Handler 返回 /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
