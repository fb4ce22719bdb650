package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/tracing"
	"resume-parser-go/pkg/utils"
)

// DocumentParser 文档解析
type DocumentParser interface {
	Parse(ctx context.Context, data []byte, filename string) (*ParseResult, error)
}

// SubmissionStore 提交记录与解析结果的持久化
type SubmissionStore interface {
	UpdateSubmissionStatus(ctx context.Context, submissionUUID, status, errMsg string) error
	SaveParseOutcome(ctx context.Context, parsed *models.ParsedResume, event *models.OutboxMessage) error
}

// FileSource 原始文件来源
type FileSource interface {
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
}

// ResultCache 按文件 MD5 缓存解析结果
type ResultCache interface {
	GetCachedResult(ctx context.Context, md5Hex string) ([]byte, bool, error)
	CacheResult(ctx context.Context, md5Hex string, data []byte) error
	RemoveRawFileMD5(ctx context.Context, md5Hex string) error
}

var (
	_ SubmissionStore = (*storage.MySQL)(nil)
	_ FileSource      = (*storage.MinIO)(nil)
	_ ResultCache     = (*storage.Redis)(nil)
	_ DocumentParser  = (*ResumeParser)(nil)
)

// ResumeService 上传消费链路：下载、解析、落库并登记 outbox 事件
type ResumeService struct {
	parser        DocumentParser
	store         SubmissionStore
	files         FileSource
	cache         ResultCache
	exchange      string
	routingKey    string
	retryInterval time.Duration
	logger        zerolog.Logger
}

// ServiceOption 服务选项
type ServiceOption func(*ResumeService)

// WithResultCache 启用解析结果缓存与失败时的去重回滚
func WithResultCache(c ResultCache) ServiceOption {
	return func(s *ResumeService) { s.cache = c }
}

// WithParsedEventTarget 解析完成事件的目标 exchange 与路由键
func WithParsedEventTarget(exchange, routingKey string) ServiceOption {
	return func(s *ResumeService) {
		s.exchange = exchange
		s.routingKey = routingKey
	}
}

// WithRetryInterval 可重试错误重新入队前的等待时间
func WithRetryInterval(d time.Duration) ServiceOption {
	return func(s *ResumeService) { s.retryInterval = d }
}

// WithServiceLogger 设置日志
func WithServiceLogger(l zerolog.Logger) ServiceOption {
	return func(s *ResumeService) { s.logger = l }
}

// NewResumeService 创建上传消费服务
func NewResumeService(p DocumentParser, store SubmissionStore, files FileSource, opts ...ServiceOption) *ResumeService {
	s := &ResumeService{
		parser:        p,
		store:         store,
		files:         files,
		exchange:      "resume.events",
		routingKey:    models.EventResumeParsed,
		retryInterval: 5 * time.Second,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "resume_service").Logger()
	return s
}

// NewResumeServiceFromStorage 使用聚合存储装配服务
func NewResumeServiceFromStorage(p DocumentParser, st *storage.Storage, cfg *config.RabbitMQConfig, logger zerolog.Logger) *ResumeService {
	opts := []ServiceOption{
		WithResultCache(st.Redis),
		WithServiceLogger(logger),
	}
	if cfg != nil {
		opts = append(opts,
			WithParsedEventTarget(cfg.ResumeExchange, cfg.ParsedRoutingKey),
			WithRetryInterval(config.GetDuration(cfg.RetryInterval, 5*time.Second)),
		)
	}
	return NewResumeService(p, st.MySQL, st.MinIO, opts...)
}

// HandleMessage 适配 storage.MessageHandler，返回 false 表示消息需要重新入队
func (s *ResumeService) HandleMessage(ctx context.Context, body []byte) bool {
	var msg storage.ResumeUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.logger.Error().Err(err).Msg("解析上传消息失败，丢弃该消息")
		return true
	}

	err := s.ProcessUploadedResume(ctx, msg)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	if !IsRetryable(err) {
		// 解析失败已记录到提交状态，重投无意义
		return true
	}

	s.logger.Warn().Err(err).Str("submission_uuid", msg.SubmissionUUID).
		Dur("retry_in", s.retryInterval).Msg("处理失败，消息将重新入队")
	select {
	case <-ctx.Done():
	case <-time.After(s.retryInterval):
	}
	return false
}

// ProcessUploadedResume 处理一条上传消息
func (s *ResumeService) ProcessUploadedResume(ctx context.Context, msg storage.ResumeUploadMessage) error {
	ctx, span := tracer.Start(ctx, "ResumeService.ProcessUploadedResume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("submission_uuid", msg.SubmissionUUID),
			attribute.String("source_channel", msg.SourceChannel),
		))
	defer span.End()

	log := s.logger.With().Str("submission_uuid", msg.SubmissionUUID).Logger()
	if msg.SubmissionUUID == "" || msg.OriginalFilePathOSS == "" {
		err := fmt.Errorf("%w: 缺少 submission_uuid 或 original_file_path_oss", ErrInvalidMessage)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		log.Error().Err(err).Msg("无效的上传消息")
		return err
	}

	if err := s.store.UpdateSubmissionStatus(ctx, msg.SubmissionUUID, models.StatusParsing, ""); err != nil {
		err = NewUpdateError(msg.SubmissionUUID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}

	result, cached := s.lookupCache(ctx, msg.RawFileMD5, log)
	if !cached {
		var err error
		result, err = s.downloadAndParse(ctx, msg)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeExtract)
			if ctx.Err() == nil {
				// 取消时消息会重新入队，不改状态
				s.markFailed(ctx, msg, err, log)
			}
			return err
		}
		s.storeCache(ctx, msg.RawFileMD5, result, log)
	}
	span.SetAttributes(attribute.Bool("cache_hit", cached))

	parsed, event, err := s.buildOutcome(msg.SubmissionUUID, result, time.Now())
	if err != nil {
		err = NewStoreError(msg.SubmissionUUID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		s.markFailed(ctx, msg, err, log)
		return err
	}
	if err := s.store.SaveParseOutcome(ctx, parsed, event); err != nil {
		err = NewStoreError(msg.SubmissionUUID, err)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return err
	}

	span.SetStatus(codes.Ok, "")
	log.Info().
		Bool("cache_hit", cached).
		Bool("ocr", result.Meta.OCRUsed).
		Int("sections", len(result.Meta.SectionIDs)).
		Msg("简历解析结果已保存")
	return nil
}

func (s *ResumeService) downloadAndParse(ctx context.Context, msg storage.ResumeUploadMessage) (*ParseResult, error) {
	data, err := s.files.GetResumeFile(ctx, msg.OriginalFilePathOSS)
	if err != nil {
		return nil, NewDownloadError(msg.SubmissionUUID, err)
	}
	filename := msg.OriginalFilename
	if filename == "" {
		filename = msg.OriginalFilePathOSS
	}
	result, err := s.parser.Parse(ctx, data, filename)
	if err != nil {
		var pe *ResumeParseError
		if errors.As(err, &pe) {
			pe.SubmissionUUID = msg.SubmissionUUID
			return nil, pe
		}
		return nil, NewExtractError(msg.SubmissionUUID, err)
	}
	return result, nil
}

// markFailed 记录失败状态，并回滚去重登记以便用户重新上传
func (s *ResumeService) markFailed(ctx context.Context, msg storage.ResumeUploadMessage, cause error, log zerolog.Logger) {
	status := failureStatus(cause)
	if err := s.store.UpdateSubmissionStatus(ctx, msg.SubmissionUUID, status, cause.Error()); err != nil {
		log.Error().Err(err).Str("status", status).Msg("更新失败状态时出错")
	}
	if s.cache != nil && msg.RawFileMD5 != "" {
		if err := s.cache.RemoveRawFileMD5(ctx, msg.RawFileMD5); err != nil {
			log.Warn().Err(err).Str("md5", msg.RawFileMD5).Msg("回滚文件MD5登记失败")
		}
	}
	log.Warn().Err(cause).Str("status", status).Msg("简历解析失败")
}

func failureStatus(err error) string {
	if errors.Is(err, parser.ErrUnsupportedFormat) {
		return models.StatusUnsupportedFormat
	}
	return models.StatusParseFailed
}

func (s *ResumeService) lookupCache(ctx context.Context, md5Hex string, log zerolog.Logger) (*ParseResult, bool) {
	if s.cache == nil || md5Hex == "" {
		return nil, false
	}
	data, found, err := s.cache.GetCachedResult(ctx, md5Hex)
	if err != nil {
		log.Warn().Err(err).Msg("读取解析结果缓存失败，改为重新解析")
		return nil, false
	}
	if !found {
		return nil, false
	}
	var result ParseResult
	if err := json.Unmarshal(data, &result); err != nil || result.Resume == nil {
		log.Warn().Err(err).Msg("缓存的解析结果无法反序列化，改为重新解析")
		return nil, false
	}
	return &result, true
}

func (s *ResumeService) storeCache(ctx context.Context, md5Hex string, result *ParseResult, log zerolog.Logger) {
	if s.cache == nil || md5Hex == "" {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("序列化解析结果失败，跳过缓存")
		return
	}
	if err := s.cache.CacheResult(ctx, md5Hex, data); err != nil {
		log.Warn().Err(err).Msg("写入解析结果缓存失败")
	}
}

// buildOutcome 构造结果行与 outbox 事件
func (s *ResumeService) buildOutcome(submissionUUID string, result *ParseResult, now time.Time) (*models.ParsedResume, *models.OutboxMessage, error) {
	resumeJSON, err := utils.ToJSON(result.Resume)
	if err != nil {
		return nil, nil, fmt.Errorf("序列化结构化简历失败: %w", err)
	}

	ids := make([]string, len(result.Meta.SectionIDs))
	for i, id := range result.Meta.SectionIDs {
		ids[i] = string(id)
	}
	parsed := &models.ParsedResume{
		SubmissionUUID: submissionUUID,
		CandidateName:  result.Resume.Basics.Name,
		Email:          result.Resume.Basics.Email,
		Phone:          result.Resume.Basics.Phone,
		ResumeJSON:     resumeJSON,
		SectionIDsJSON: utils.StringsToJSON(ids),
		Format:         string(result.Meta.Format),
		LayoutKind:     string(result.Meta.LayoutKind),
		PageCount:      result.Meta.PageCount,
		OCRUsed:        result.Meta.OCRUsed,
		DurationMS:     result.Meta.DurationMS,
	}
	if len(result.Meta.ValidationErrors) > 0 {
		parsed.ValidationErrors = utils.StringsToJSON(result.Meta.ValidationErrors)
	}

	payload, err := json.Marshal(storage.ResumeParsedEvent{
		SubmissionUUID: submissionUUID,
		Status:         models.StatusParsed,
		CandidateName:  parsed.CandidateName,
		Email:          parsed.Email,
		SectionIDs:     ids,
		OCRUsed:        parsed.OCRUsed,
		ParsedAt:       now,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("序列化outbox payload失败: %w", err)
	}

	event := &models.OutboxMessage{
		AggregateID:      submissionUUID,
		EventType:        models.EventResumeParsed,
		Payload:          string(payload),
		TargetExchange:   s.exchange,
		TargetRoutingKey: s.routingKey,
		Status:           models.OutboxStatusPending,
	}
	return parsed, event, nil
}
