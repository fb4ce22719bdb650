package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-parser-go/internal/config"

	"github.com/rs/zerolog"
)

// Storage 聚合所有外部存储依赖
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	MySQL    *MySQL
	Redis    *Redis

	logger zerolog.Logger
}

// NewStorage 依次初始化各存储组件。任一组件失败即关闭已建立的连接并返回错误，
// 上传与异步解析流程需要全部组件可用。
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{logger: logger}
	var initErrors []string
	var err error

	if s.MinIO, err = NewMinIO(ctx, &cfg.MinIO, logger); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
	}
	if s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
	} else if err = s.RabbitMQ.SetupResumeTopology(); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("RabbitMQ topology: %v", err))
	}
	if s.MySQL, err = NewMySQL(&cfg.MySQL, logger); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
	}
	if s.Redis, err = NewRedisAdapter(&cfg.Redis); err != nil {
		initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
	}

	if len(initErrors) > 0 {
		s.Close()
		return nil, fmt.Errorf("存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}
	return s, nil
}

// Close 关闭所有连接，MinIO 客户端无需显式关闭
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
