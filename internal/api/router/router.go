package router

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-parser-go/internal/api/handler"
)

// APIKeyHeader API Key 请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由，apiKeys 非空时简历接口需要 API Key
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, apiKeys []string) {
	api := h.Group("/api/v1")

	// 健康检查不鉴权
	api.GET("/health", resumeHandler.Health)

	resume := api.Group("/resume")
	if len(apiKeys) > 0 {
		resume.Use(NewKeyAuth(apiKeys))
	}
	resume.POST("/parse", resumeHandler.Parse)
	resume.POST("/upload", resumeHandler.Upload)
	resume.GET("/:uuid", resumeHandler.GetSubmission)
}

// NewKeyAuth 基于请求头的 API Key 鉴权中间件
func NewKeyAuth(apiKeys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			return validKey(apiKeys, key), nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			hlog.CtxWarnf(c, "API Key 鉴权失败: path=%s err=%v", ctx.Path(), err)
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效或缺失的 API Key"})
		}),
	)
}

func validKey(apiKeys []string, key string) bool {
	ok := false
	for _, k := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			ok = true
		}
	}
	return ok
}
