package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"paysheet/internal/config"
	"paysheet/internal/importer"
	"paysheet/internal/logging"
)

// options 命令行参数
type options struct {
	configPath string
	logLevel   string
	outputPath string
	strict     bool
	asJSON     bool
	template   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "paysheetctl",
		Short:        "工资表规范化与公式复制命令行工具",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config.toml 路径（默认使用内置配置）")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "日志级别：debug、info、warn、error")

	normalizeCmd := &cobra.Command{
		Use:   "normalize [input.xlsx]",
		Short: "把花名册与薪资表投影为标准工资报表",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(cmd, opts, args[0])
		},
	}
	normalizeCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "输出工作簿路径（默认当前目录下的 <sheet>.xlsx）")
	normalizeCmd.Flags().BoolVar(&opts.strict, "strict", false, "记录回退为 0 的未解析字段")
	normalizeCmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出运行结果")

	replicateCmd := &cobra.Command{
		Use:   "replicate [attendance.xlsx]",
		Short: "按考勤行数复制模板行公式",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplicate(cmd, opts, args[0])
		},
	}
	replicateCmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "输出工作簿路径（默认当前目录下的 <sheet>.xlsx）")
	replicateCmd.Flags().StringVar(&opts.template, "template", "", "模板工作簿（默认 sink.template_path）")
	replicateCmd.Flags().BoolVar(&opts.asJSON, "json", false, "以 JSON 输出运行结果")

	inspectCmd := &cobra.Command{
		Use:   "inspect [input.xlsx]",
		Short: "以 JSON 输出 sheet 角色、表头映射与标记列",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args[0])
		},
	}

	rootCmd.AddCommand(normalizeCmd, replicateCmd, inspectCmd)
	return rootCmd
}

// setup 加载配置并构造无持久化的协调器
func setup(opts *options) (*importer.Coordinator, *zap.Logger, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, _, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := logging.New(cfg.Log, cfg.Server.DevMode)
	if err != nil {
		return nil, nil, err
	}

	exportDir := "."
	if opts.outputPath != "" {
		exportDir = filepath.Dir(opts.outputPath)
	}
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}

	settings, err := importer.SettingsFromConfig(cfg, exportDir)
	if err != nil {
		return nil, nil, err
	}
	if opts.template != "" {
		settings.TemplatePath = opts.template
	}
	return importer.NewCoordinator(nil, settings, logger), logger, nil
}

func runNormalize(cmd *cobra.Command, opts *options, inputPath string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}
	coordinator, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := coordinator.RunNormalize(ctx, importer.NormalizeOptions{
		FilePath: inputPath,
		Filename: filepath.Base(inputPath),
		Strict:   opts.strict,
	})
	if err != nil {
		return fmt.Errorf("normalize failed: %w", err)
	}
	return finish(cmd.OutOrStdout(), report, opts)
}

func runReplicate(cmd *cobra.Command, opts *options, inputPath string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}
	coordinator, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := coordinator.RunReplicate(ctx, importer.ReplicateOptions{
		FilePath:     inputPath,
		Filename:     filepath.Base(inputPath),
		TemplatePath: coordinator.Settings().TemplatePath,
	})
	if err != nil {
		return fmt.Errorf("replicate failed: %w", err)
	}
	return finish(cmd.OutOrStdout(), report, opts)
}

func runInspect(cmd *cobra.Command, opts *options, inputPath string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}
	coordinator, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync()

	inspection, err := coordinator.Inspect(inputPath)
	if err != nil {
		return fmt.Errorf("inspect failed: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), inspection)
}

// finish 把导出文件移动到 -o 指定位置并打印结果
func finish(w io.Writer, report *importer.Report, opts *options) error {
	if opts.outputPath != "" && report.OutputPath != opts.outputPath {
		if err := os.Rename(report.OutputPath, opts.outputPath); err != nil {
			return fmt.Errorf("move output: %w", err)
		}
		report.OutputPath = opts.outputPath
	}
	if opts.asJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "工作表: %s\n", report.SheetName)
	fmt.Fprintf(w, "行数: %d\n", report.Rows)
	fmt.Fprintf(w, "未解析字段: %d\n", len(report.Unresolved))
	fmt.Fprintf(w, "输出文件: %s\n", report.OutputPath)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
