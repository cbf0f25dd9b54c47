// Package app 工具检索命令行：HTTP 服务、数据导入与运维查询
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/tool-search/internal/config"
	"github.com/ashwinyue/tool-search/internal/logger"
	"github.com/ashwinyue/tool-search/internal/service"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ServicesFactory 按配置创建服务集合
type ServicesFactory func(ctx context.Context, cfg *config.Config) (*service.Services, error)

// rootOptions 全局参数
type rootOptions struct {
	configPath string
	namespace  string
	logLevel   string
	format     string

	newServices ServicesFactory
	cfg         *config.Config
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	return newRootCmd(service.NewServices)
}

func newRootCmd(factory ServicesFactory) *cobra.Command {
	opts := &rootOptions{newServices: factory}

	cmd := &cobra.Command{
		Use:               "tool-search",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Semantic search over a catalog of callable tools",
		Long: `tool-search indexes tool definitions (grouped into toolkits) as embedding vectors
and retrieves them by natural-language query and metadata filters.
It can run as an HTTP service or operate on the index directly.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the config file (defaults to $CONFIG_PATH)")
	flags.StringVarP(&opts.namespace, "namespace", "n", "", "Index namespace (defaults to index.namespace)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.StringVarP(&opts.format, "format", "o", FormatText, "Output format (text or json)")

	cmd.AddCommand(
		newServeCmd(opts),
		newLoadCmd(opts),
		newQueryCmd(opts),
		newToolkitCmd(opts),
		newHealthCmd(opts),
		newStatsCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// init 加载配置并初始化日志
func (o *rootOptions) init() error {
	path := o.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	o.cfg = cfg
	return nil
}

// services 创建服务集合，调用方负责 Close
func (o *rootOptions) services(ctx context.Context) (*service.Services, error) {
	if o.cfg == nil {
		if err := o.init(); err != nil {
			return nil, err
		}
	}
	return o.newServices(ctx, o.cfg)
}

// withServices 创建服务集合并在 fn 返回后释放
func (o *rootOptions) withServices(cmd *cobra.Command, fn func(ctx context.Context, svcs *service.Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svcs, err := o.services(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			logger.Warnf("failed to close services: %v", err)
		}
	}()
	return fn(ctx, svcs)
}

// printJSON 以缩进 JSON 输出
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
