package constants

import "time"

const (
	// ParserVersion 写入提交记录，便于按版本重解析
	ParserVersion = "1.0"

	// ServiceName 服务名，用于日志和链路追踪
	ServiceName = "resume-parser"

	// DefaultResultCacheDuration 解析结果缓存默认时长
	DefaultResultCacheDuration = 24 * time.Hour
)
