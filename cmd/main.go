package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"

	"resume-parser-go/internal/api/handler"
	"resume-parser-go/internal/api/router"
	"resume-parser-go/internal/config"
	appLogger "resume-parser-go/internal/logger"
	"resume-parser-go/internal/outbox"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
)

func main() {
	var configPath string
	var syncOnly bool
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	pflag.BoolVar(&syncOnly, "sync-only", false, "Only serve synchronous parsing, skip storage and consumers")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	logCloser, err := appLogger.Init(appLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		File:         cfg.Logger.File,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	if err != nil {
		glog.Fatalf("初始化日志失败: %v", err)
	}
	glog.SetLogger(hertzadapter.From(appLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	comp, err := processor.BuildComponents(ctx, cfg, appLogger.Component("extractor"))
	if err != nil {
		glog.Fatalf("初始化解析组件失败: %v", err)
	}
	resumeParser := processor.NewResumeParser(comp, processor.SettingsFromConfig(cfg),
		processor.WithsetLogger(appLogger.Component("parser")))
	glog.Info("简历解析器初始化成功")

	// 存储不可用时降级为仅同步解析
	var storageManager *storage.Storage
	if !syncOnly {
		storageManager, err = storage.NewStorage(ctx, cfg, appLogger.Component("storage"))
		if err != nil {
			glog.Warnf("初始化存储失败，仅提供同步解析: %v", err)
			storageManager = nil
		} else {
			glog.Info("存储服务初始化成功")
		}
	}

	var messageRelay *outbox.MessageRelay
	var consumerDone <-chan struct{}
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	if storageManager != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			appLogger.Component("outbox"),
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.OutboxPollInterval, 2*time.Second)))
		messageRelay.Start()
		glog.Info("消息中继服务已启动")

		svc := processor.NewResumeServiceFromStorage(resumeParser, storageManager, &cfg.RabbitMQ, appLogger.Component("consumer"))
		consumerDone, err = storageManager.RabbitMQ.StartConsumer(consumerCtx, cfg.RabbitMQ.UploadQueue,
			cfg.RabbitMQ.PrefetchCount, cfg.RabbitMQ.ConsumerWorkers, svc.HandleMessage)
		if err != nil {
			glog.Fatalf("启动简历上传消费者失败: %v", err)
		}
		glog.Infof("简历上传消费者已启动，工作协程数: %d", cfg.RabbitMQ.ConsumerWorkers)
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		// multipart 表单本身有额外开销
		server.WithMaxRequestBodySize(int(cfg.Server.MaxUploadBytes())+1<<20),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		glog.CtxInfof(c, "%s %s status=%d cost=%s", string(ctx.Method()), string(ctx.Path()),
			ctx.Response.StatusCode(), time.Since(start))
	})

	var deps *handler.UploadDeps
	if storageManager != nil {
		deps = handler.UploadDepsFromStorage(storageManager)
	}
	router.RegisterRoutes(h, handler.NewResumeHandler(cfg, resumeParser, deps), cfg.Auth.APIKeys)
	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownTimeout := config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}

	// 先停止消费，等在途消息处理完再关闭中继和连接
	stopConsumer()
	if consumerDone != nil {
		select {
		case <-consumerDone:
			glog.Info("消费者已停止")
		case <-shutdownCtx.Done():
			glog.Warn("等待消费者退出超时")
		}
	}
	if messageRelay != nil {
		messageRelay.Stop()
		glog.Info("消息中继服务已停止")
	}
	if storageManager != nil {
		storageManager.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
	closeQuietly(logCloser)
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
