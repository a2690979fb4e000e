package dhtstore

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 分层存储 Prometheus 指标
//
// 队列深度在每次完整列举时采样更新，不引入额外的计数读写。
// 使用默认 Registry，宿主进程经 /metrics 统一抓取。

var (
	storeMetricsOnce sync.Once

	limboDepthGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hashweft",
			Subsystem: "dht",
			Name:      "limbo_ops",
			Help:      "Ops currently held in each limbo queue, sampled at workflow list time.",
		},
		[]string{"queue"},
	)
)

// initStoreMetrics 在首次使用时注册存储指标。
func initStoreMetrics() {
	storeMetricsOnce.Do(func() {
		prometheus.MustRegister(limboDepthGauge)
	})
}

// observeLimboDepth 采样更新指定队列的深度。
func observeLimboDepth(queue string, depth int) {
	initStoreMetrics()
	limboDepthGauge.WithLabelValues(queue).Set(float64(depth))
}
