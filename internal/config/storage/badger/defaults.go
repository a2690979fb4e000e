package badger

import "github.com/hashweft/v1/pkg/utils"

// BadgerDB配置默认值
const (
	// defaultSyncWrites 默认关闭同步写入
	// 管线阶段的提交点本身是显式的，操作系统页缓存的刷盘延迟可以接受；
	// 对数据安全性要求更高的部署可通过配置开启
	defaultSyncWrites = false

	// defaultMemTableSize 内存表大小设为64MB
	// 与BadgerDB默认值一致，覆盖常见的操作吞吐
	defaultMemTableSize = 64 << 20
)

// getDefaultPath 获取默认数据库路径
func getDefaultPath() string {
	return utils.ResolveDataPath("./data/badger")
}
