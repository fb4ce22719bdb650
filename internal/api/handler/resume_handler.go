package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/parser"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/storage/models"
	"resume-parser-go/internal/types"
	pkgutils "resume-parser-go/pkg/utils"
)

// ErrDuplicateFile 相同文件已经提交过
var ErrDuplicateFile = errors.New("duplicate file")

// Deduplicator 原始文件 MD5 去重
type Deduplicator interface {
	CheckAndAddRawFileMD5(ctx context.Context, md5Hex, submissionUUID string) (bool, string, error)
	RemoveRawFileMD5(ctx context.Context, md5Hex string) error
}

// SubmissionRepository 提交记录读写
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, sub *models.ResumeSubmission) error
	GetSubmission(ctx context.Context, submissionUUID string) (*models.ResumeSubmission, error)
}

// Publisher 消息发布
type Publisher interface {
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
}

// UploadDeps 异步上传链路依赖，未配置时相关接口返回 503
type UploadDeps struct {
	Dedup       Deduplicator
	Objects     storage.ObjectStorage
	Submissions SubmissionRepository
	Publisher   Publisher
}

// UploadDepsFromStorage 由聚合存储构造
func UploadDepsFromStorage(s *storage.Storage) *UploadDeps {
	if s == nil {
		return nil
	}
	return &UploadDeps{Dedup: s.Redis, Objects: s.MinIO, Submissions: s.MySQL, Publisher: s.RabbitMQ}
}

// ResumeHandler 简历接口
type ResumeHandler struct {
	cfg    *config.Config
	parser processor.DocumentParser
	deps   *UploadDeps
}

// NewResumeHandler 创建处理器，deps 为 nil 时仅提供同步解析
func NewResumeHandler(cfg *config.Config, p processor.DocumentParser, deps *UploadDeps) *ResumeHandler {
	return &ResumeHandler{cfg: cfg, parser: p, deps: deps}
}

// ResumeUploadResponse 上传响应
type ResumeUploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	Status         string `json:"status"`
}

// SubmissionResponse 提交状态查询响应
type SubmissionResponse struct {
	SubmissionUUID   string          `json:"submission_uuid"`
	Status           string          `json:"status"`
	OriginalFilename string          `json:"original_filename,omitempty"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	Resume           json.RawMessage `json:"resume,omitempty"`
	Meta             *SubmissionMeta `json:"meta,omitempty"`
}

// SubmissionMeta 已解析提交的元信息
type SubmissionMeta struct {
	Format           string          `json:"format"`
	LayoutKind       string          `json:"layout_kind"`
	PageCount        int             `json:"page_count"`
	OCRUsed          bool            `json:"ocr_used"`
	SectionIDs       json.RawMessage `json:"section_ids,omitempty"`
	ValidationErrors json.RawMessage `json:"validation_errors,omitempty"`
	DurationMS       int64           `json:"duration_ms"`
}

// Parse POST /api/v1/resume/parse，同步解析并返回结果
func (h *ResumeHandler) Parse(c context.Context, ctx *app.RequestContext) {
	filename, data, ok := h.readUpload(c, ctx)
	if !ok {
		return
	}

	result, err := h.parser.Parse(c, data, filename)
	if err != nil {
		status := StatusForError(err)
		hlog.CtxWarnf(c, "解析简历失败: file=%s status=%d err=%v", filename, status, err)
		ctx.JSON(status, utils.H{"error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"resume": result.Resume, "meta": result.Meta})
}

// Upload POST /api/v1/resume/upload，登记提交并投递到解析队列
func (h *ResumeHandler) Upload(c context.Context, ctx *app.RequestContext) {
	if h.deps == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "异步上传未启用"})
		return
	}
	filename, data, ok := h.readUpload(c, ctx)
	if !ok {
		return
	}
	sourceChannel := ctx.PostForm("source_channel")
	if sourceChannel == "" {
		sourceChannel = "web_upload"
	}

	resp, err := h.HandleResumeUpload(c, data, filename, sourceChannel)
	switch {
	case errors.Is(err, ErrDuplicateFile):
		ctx.JSON(consts.StatusConflict, utils.H{"error": "文件已提交", "submission_uuid": resp.SubmissionUUID})
	case err != nil:
		status := StatusForError(err)
		hlog.CtxErrorf(c, "处理简历上传失败: file=%s err=%v", filename, err)
		ctx.JSON(status, utils.H{"error": err.Error()})
	default:
		ctx.JSON(consts.StatusAccepted, resp)
	}
}

// HandleResumeUpload 去重、上传原始文件、写入提交记录并发布上传消息
// 重复文件返回 ErrDuplicateFile，resp 中带有首次提交的 UUID
func (h *ResumeHandler) HandleResumeUpload(ctx context.Context, data []byte, filename, sourceChannel string) (*ResumeUploadResponse, error) {
	ext := filepath.Ext(filename)
	if types.FormatFromFilename(filename) == types.FormatUnknown {
		format := parser.SniffFormat(data)
		if format == types.FormatUnknown {
			return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFormat, filename)
		}
		ext = extForFormat(format)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := id.String()
	fileMD5Hex := pkgutils.CalculateMD5(data)

	exists, owner, err := h.deps.Dedup.CheckAndAddRawFileMD5(ctx, fileMD5Hex, submissionUUID)
	if err != nil {
		return nil, fmt.Errorf("检查文件MD5重复性失败: %w", err)
	}
	if exists {
		hlog.CtxInfof(ctx, "检测到重复文件: md5=%s owner=%s", fileMD5Hex, owner)
		return &ResumeUploadResponse{SubmissionUUID: owner, Status: "DUPLICATE"}, ErrDuplicateFile
	}

	objectKey, _, err := h.deps.Objects.UploadResumeFile(ctx, submissionUUID, ext, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		h.rollbackMD5(ctx, fileMD5Hex)
		return nil, fmt.Errorf("上传简历到对象存储失败: %w", err)
	}

	now := time.Now()
	sub := &models.ResumeSubmission{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5Hex,
		FileSize:            int64(len(data)),
		ProcessingStatus:    models.StatusPendingParsing,
		ParserVersion:       constants.ParserVersion,
	}
	if err := h.deps.Submissions.CreateSubmission(ctx, sub); err != nil {
		h.rollbackMD5(ctx, fileMD5Hex)
		if delErr := h.deps.Objects.DeleteResumeFile(ctx, objectKey); delErr != nil {
			hlog.CtxWarnf(ctx, "清理对象失败: key=%s err=%v", objectKey, delErr)
		}
		return nil, err
	}

	msg := storage.ResumeUploadMessage{
		SubmissionUUID:      submissionUUID,
		SubmissionTimestamp: now,
		SourceChannel:       sourceChannel,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		RawFileMD5:          fileMD5Hex,
	}
	if err := h.deps.Publisher.PublishJSON(ctx, h.cfg.RabbitMQ.ResumeExchange, h.cfg.RabbitMQ.UploadRoutingKey, msg, true); err != nil {
		// 提交记录保留为 PENDING_PARSING，可按状态补偿重投
		h.rollbackMD5(ctx, fileMD5Hex)
		return nil, fmt.Errorf("发布上传消息失败: %w", err)
	}

	return &ResumeUploadResponse{SubmissionUUID: submissionUUID, Status: models.StatusPendingParsing}, nil
}

func (h *ResumeHandler) rollbackMD5(ctx context.Context, md5Hex string) {
	if err := h.deps.Dedup.RemoveRawFileMD5(ctx, md5Hex); err != nil {
		hlog.CtxWarnf(ctx, "回滚文件MD5登记失败: md5=%s err=%v", md5Hex, err)
	}
}

// GetSubmission GET /api/v1/resume/:uuid
func (h *ResumeHandler) GetSubmission(c context.Context, ctx *app.RequestContext) {
	if h.deps == nil {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": "异步上传未启用"})
		return
	}
	id := ctx.Param("uuid")
	if _, err := uuid.Parse(id); err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "无效的 submission uuid"})
		return
	}

	sub, err := h.deps.Submissions.GetSubmission(c, id)
	if errors.Is(err, storage.ErrSubmissionNotFound) {
		ctx.JSON(consts.StatusNotFound, utils.H{"error": "提交记录不存在"})
		return
	}
	if err != nil {
		hlog.CtxErrorf(c, "查询提交记录失败: uuid=%s err=%v", id, err)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "查询提交记录失败"})
		return
	}
	ctx.JSON(consts.StatusOK, toSubmissionResponse(sub))
}

func toSubmissionResponse(sub *models.ResumeSubmission) *SubmissionResponse {
	resp := &SubmissionResponse{
		SubmissionUUID:   sub.SubmissionUUID,
		Status:           sub.ProcessingStatus,
		OriginalFilename: sub.OriginalFilename,
		SubmittedAt:      sub.SubmissionTimestamp,
		ErrorMessage:     sub.ErrorMessage,
	}
	if pr := sub.ParsedResume; pr != nil {
		resp.Resume = json.RawMessage(pr.ResumeJSON)
		resp.Meta = &SubmissionMeta{
			Format:     pr.Format,
			LayoutKind: pr.LayoutKind,
			PageCount:  pr.PageCount,
			OCRUsed:    pr.OCRUsed,
			DurationMS: pr.DurationMS,
		}
		if len(pr.SectionIDsJSON) > 0 {
			resp.Meta.SectionIDs = json.RawMessage(pr.SectionIDsJSON)
		}
		if len(pr.ValidationErrors) > 0 {
			resp.Meta.ValidationErrors = json.RawMessage(pr.ValidationErrors)
		}
	}
	return resp
}

// Health GET /api/v1/health
func (h *ResumeHandler) Health(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{
		"status":         "ok",
		"parser_version": constants.ParserVersion,
		"async_upload":   h.deps != nil,
	})
}

// readUpload 读取表单中的 file 字段，失败时已写入响应
func (h *ResumeHandler) readUpload(c context.Context, ctx *app.RequestContext) (string, []byte, bool) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
		return "", nil, false
	}
	maxBytes := h.cfg.Server.MaxUploadBytes()
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{"error": fmt.Sprintf("文件超过 %d MB 上限", h.cfg.Server.MaxUploadMB)})
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		hlog.CtxErrorf(c, "打开上传文件失败: %v", err)
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "读取上传文件失败"})
		return "", nil, false
	}
	if len(data) == 0 {
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件为空"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

// StatusForError 把解析与存储错误映射为 HTTP 状态码
func StatusForError(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, parser.ErrCorruptDocument):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, processor.ErrOCRFailed), errors.Is(err, parser.ErrOCRUnavailable):
		return consts.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return consts.StatusGatewayTimeout
	case errors.Is(err, ErrDuplicateFile):
		return consts.StatusConflict
	default:
		return consts.StatusInternalServerError
	}
}

func extForFormat(f types.Format) string {
	switch f {
	case types.FormatPDF:
		return ".pdf"
	case types.FormatDOCX:
		return ".docx"
	case types.FormatDOC:
		return ".doc"
	default:
		return ".txt"
	}
}
