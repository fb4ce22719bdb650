package constants

// Redis Key 命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 所有 Redis Key 的统一前缀
	AppPrefix = "app"

	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// ParseModulePrefix 解析模块
	ParseModulePrefix = "parse"

	// EntityDedupSet 去重集合
	EntityDedupSet = "dedup_set"
	// EntityMD5ToUUID MD5 到 UUID 的映射
	EntityMD5ToUUID = "md5_to_uuid"
	// EntityResult 解析结果
	EntityResult = "result"

	// KeyFileMD5Set 原始文件 MD5 集合 (SET)
	// 格式: app:file:dedup_set
	KeyFileMD5Set = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyFileMD5ToSubmissionUUID MD5 到 SubmissionUUID 的映射 (STRING)
	// 格式: app:file:md5_to_uuid:{md5}
	KeyFileMD5ToSubmissionUUID = AppPrefix + ":" + FileModulePrefix + ":" + EntityMD5ToUUID + ":%s"

	// KeyParseResult 按文件 MD5 缓存的解析结果 (STRING, JSON)
	// 格式: app:parse:result:{md5}
	KeyParseResult = AppPrefix + ":" + ParseModulePrefix + ":" + EntityResult + ":%s"
)
