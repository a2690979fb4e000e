package pipeline

// 管线配置默认值
const (
	// defaultBatchSize 单轮工作流处理的最大操作数设为50
	// 单轮上限保证阶段在突发之间公平让出（每次唤醒一轮，而非每个条目一轮）；
	// 队列未排空时工作流返回Incomplete并自触发继续排空
	defaultBatchSize = 50

	// defaultMaxDepAttempts 依赖未就绪时的最大重排队次数设为0（不限制）
	// NotHoldingDep是可恢复失败：依赖可能随后续gossip到达；
	// 设为正数可在极端场景下限制无限重排队
	defaultMaxDepAttempts = 0

	// defaultFetchTimeoutMS 级联网络检索超时设为5000毫秒
	// 解析器自身不做重试，超时边界即级联协作方的延迟上界
	defaultFetchTimeoutMS = 5000
)
