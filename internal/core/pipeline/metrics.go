package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// 管线 Prometheus 指标
//
// 设计原则：
// - 仅暴露少量高价值指标，避免噪音；
// - 更新开销常数级，不进入事务热路径；
// - 使用默认 Registry，宿主进程经 /metrics 统一抓取。

var (
	pipelineMetricsOnce sync.Once

	stagePassCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashweft",
			Subsystem: "pipeline",
			Name:      "stage_passes_total",
			Help:      "Committed workflow passes per stage, labeled by pass result.",
		},
		[]string{"stage", "result"},
	)

	stageErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hashweft",
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Workflow pass failures reported to the supervisor, per stage.",
		},
		[]string{"stage"},
	)
)

// initPipelineMetrics 在首次使用时注册管线指标。
func initPipelineMetrics() {
	pipelineMetricsOnce.Do(func() {
		prometheus.MustRegister(
			stagePassCounter,
			stageErrorCounter,
		)
	})
}

// observePass 记录一次已提交的工作流轮次。
func observePass(stage string, complete WorkComplete) {
	initPipelineMetrics()
	result := "complete"
	if complete == WorkCompleteIncomplete {
		result = "incomplete"
	}
	stagePassCounter.WithLabelValues(stage, result).Inc()
}

// observeStageError 记录一次上报监督方的轮次失败。
func observeStageError(stage string) {
	initPipelineMetrics()
	stageErrorCounter.WithLabelValues(stage).Inc()
}
