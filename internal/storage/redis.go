package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound 键不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-parser-go/storage/redis")

// 原子地检查 MD5 是否已存在：存在时返回关联的 UUID，
// 不存在时写入集合与映射并刷新过期时间，返回空串。
var checkAndAddMD5Script = redis.NewScript(`
local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
if exists == 1 then
	local owner = redis.call('GET', KEYS[2])
	if owner then
		return {1, owner}
	end
	return {1, ''}
end
redis.call('SADD', KEYS[1], ARGV[1])
redis.call('EXPIRE', KEYS[1], ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'EX', ARGV[3])
return {0, ''}
`)

// Redis 封装 Redis 客户端
type Redis struct {
	Client redis.UniversalClient
	config *config.RedisConfig
}

// NewRedisAdapter 创建 Redis 连接并挂载 OpenTelemetry 钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  config.GetDuration(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout, 3*time.Second),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout, 3*time.Second),
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisWithClient(client, cfg), nil
}

// NewRedisWithClient 使用已有客户端构造，便于测试注入
func NewRedisWithClient(client redis.UniversalClient, cfg *config.RedisConfig) *Redis {
	if cfg == nil {
		cfg = &config.RedisConfig{}
	}
	return &Redis{Client: client, config: cfg}
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration MD5 去重记录的过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetResultCacheDuration 解析结果缓存时长
func (r *Redis) GetResultCacheDuration() time.Duration {
	if r.config.ResultCacheHours <= 0 {
		return constants.DefaultResultCacheDuration
	}
	return time.Duration(r.config.ResultCacheHours) * time.Hour
}

func (r *Redis) startSpan(ctx context.Context, name, op, key string) (context.Context, trace.Span) {
	ctx, span := redisTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.Int("db.redis.database_index", r.config.DB),
		attribute.String("db.operation", op),
		attribute.String("db.redis.key", key),
	)
	return ctx, span
}

// CheckAndAddRawFileMD5 原子地检查并登记原始文件 MD5。
// 已存在时返回 exists=true 以及首次登记该文件的 submissionUUID（可能为空）。
func (r *Redis) CheckAndAddRawFileMD5(ctx context.Context, md5Hex, submissionUUID string) (exists bool, existingUUID string, err error) {
	ctx, span := r.startSpan(ctx, "Redis.CheckAndAddRawFileMD5", "EVALSHA", constants.KeyFileMD5Set)
	defer span.End()
	span.SetAttributes(attribute.String("db.redis.member", md5Hex))

	if r.Client == nil {
		err = fmt.Errorf("redis client is not initialized")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, "", err
	}

	mapKey := fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex)
	expiry := int64(r.GetMD5ExpireDuration().Seconds())
	res, err := checkAndAddMD5Script.Run(ctx, r.Client,
		[]string{constants.KeyFileMD5Set, mapKey}, md5Hex, submissionUUID, expiry).Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, "", fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}
	if len(res) != 2 {
		err = fmt.Errorf("意外的Redis返回长度: %d", len(res))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, "", err
	}

	flag, _ := res[0].(int64)
	owner, _ := res[1].(string)
	exists = flag == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, owner, nil
}

// RemoveRawFileMD5 移除 MD5 登记，用于上传或解析失败后的回滚
func (r *Redis) RemoveRawFileMD5(ctx context.Context, md5Hex string) error {
	ctx, span := r.startSpan(ctx, "Redis.RemoveRawFileMD5", "SREM", constants.KeyFileMD5Set)
	defer span.End()

	pipe := r.Client.TxPipeline()
	pipe.SRem(ctx, constants.KeyFileMD5Set, md5Hex)
	pipe.Del(ctx, fmt.Sprintf(constants.KeyFileMD5ToSubmissionUUID, md5Hex))
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("从集合中移除MD5失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetCachedResult 按文件 MD5 读取缓存的解析结果，未命中时 found=false
func (r *Redis) GetCachedResult(ctx context.Context, md5Hex string) (data []byte, found bool, err error) {
	key := fmt.Sprintf(constants.KeyParseResult, md5Hex)
	ctx, span := r.startSpan(ctx, "Redis.GetCachedResult", "GET", key)
	defer span.End()

	data, err = r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("读取解析结果缓存失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("cache_hit", true), attribute.Int("db.redis.value_length", len(data)))
	return data, true, nil
}

// CacheResult 缓存解析结果
func (r *Redis) CacheResult(ctx context.Context, md5Hex string, data []byte) error {
	key := fmt.Sprintf(constants.KeyParseResult, md5Hex)
	ctx, span := r.startSpan(ctx, "Redis.CacheResult", "SET", key)
	defer span.End()

	ttl := r.GetResultCacheDuration()
	span.SetAttributes(attribute.Int64("db.redis.expiration_ms", ttl.Milliseconds()))
	if err := r.Client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("写入解析结果缓存失败: %w", err)
	}
	return nil
}
