// resumeparse 离线批量解析简历文件，不依赖任何外部存储
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"resume-parser-go/internal/config"
	appLogger "resume-parser-go/internal/logger"
	"resume-parser-go/internal/processor"
)

var (
	configPath   = pflag.StringP("config", "c", "", "配置文件路径，留空时使用默认配置")
	outDir       = pflag.StringP("out", "o", "", "输出目录，留空时写到标准输出")
	concurrency  = pflag.IntP("concurrency", "j", 4, "并发解析的文件数")
	withSections = pflag.Bool("sections", false, "输出中包含分段原文")
	pretty       = pflag.Bool("pretty", false, "格式化输出 JSON")
	failFast     = pflag.Bool("fail-fast", false, "任一文件失败即退出")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "用法: resumeparse [flags] <file>...\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	// 标准输出留给解析结果
	logger := appLogger.New(zerolog.ConsoleWriter{Out: os.Stderr}, parseLevel(cfg.Logger.Level))

	ctx := context.Background()
	comp, err := processor.BuildComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化解析组件失败")
	}
	p := processor.NewResumeParser(comp, processor.SettingsFromConfig(cfg), processor.WithsetLogger(logger))

	failed, err := run(ctx, p, files, runOptions{
		outDir:       *outDir,
		concurrency:  *concurrency,
		withSections: *withSections,
		pretty:       *pretty,
		failFast:     *failFast,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("批量解析中止")
		os.Exit(1)
	}
	if failed > 0 {
		logger.Warn().Int("failed", failed).Int("total", len(files)).Msg("部分文件解析失败")
		os.Exit(1)
	}
}

type runOptions struct {
	outDir       string
	concurrency  int
	withSections bool
	pretty       bool
	failFast     bool
}

// run 并发解析所有文件，返回失败的文件数
func run(ctx context.Context, p processor.DocumentParser, files []string, opts runOptions, logger zerolog.Logger) (int, error) {
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return 0, fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if opts.concurrency <= 0 {
		opts.concurrency = 1
	}

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for _, file := range files {
		file := file
		g.Go(func() error {
			err := parseOne(gctx, p, file, opts, &mu)
			if err == nil {
				return nil
			}
			logger.Error().Err(err).Str("file", file).Msg("解析失败")
			if opts.failFast {
				return fmt.Errorf("%s: %w", file, err)
			}
			mu.Lock()
			failed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failed, err
	}
	return failed, nil
}

func parseOne(ctx context.Context, p processor.DocumentParser, file string, opts runOptions, stdoutMu *sync.Mutex) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	result, err := p.Parse(ctx, data, filepath.Base(file))
	if err != nil {
		return err
	}
	if !opts.withSections {
		result.Sections = nil
	}

	var out []byte
	if opts.pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}

	if opts.outDir == "" {
		stdoutMu.Lock()
		defer stdoutMu.Unlock()
		_, err = fmt.Fprintln(os.Stdout, string(out))
		return err
	}
	return os.WriteFile(outputPath(opts.outDir, file), append(out, '\n'), 0o644)
}

// outputPath 输出文件名为原文件名去掉扩展名加 .json
func outputPath(dir, input string) string {
	base := filepath.Base(input)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(dir, base+".json")
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}
