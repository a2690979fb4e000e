package log

// LogLevel 日志级别类型
type LogLevel string

// 日志级别常量
const (
	// DebugLevel 调试级别
	DebugLevel LogLevel = "debug"
	// InfoLevel 信息级别
	InfoLevel LogLevel = "info"
	// WarnLevel 警告级别
	WarnLevel LogLevel = "warn"
	// ErrorLevel 错误级别
	ErrorLevel LogLevel = "error"
	// FatalLevel 致命级别
	FatalLevel LogLevel = "fatal"
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	return string(l)
}
