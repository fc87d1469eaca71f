package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SkyAshes/fleetradar/internal/core"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 抓取参数
	waitTime    int
	mode        string
	headless    bool
	resume      bool
	maxAircraft int
	airlines    []string
	airlineFile string
	outputDir   string
	format      string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
)

var rootCmd = &cobra.Command{
	Use:   "fleetradar [instances]",
	Short: "航班机队数据抓取工具",
	Long: `fleetradar - 多浏览器实例并发的航班机队数据抓取工具 (Go版本)

驱动N个无头Chrome实例抓取flightradar24的航司/机队/航班历史数据,
把同一架飞机连续的进出港航班配对成带地面停留时间的过站记录,支持:
  • 多浏览器实例并发 (默认实例数 = CPU核心数)
  • HTTP直连/浏览器混合获取模式
  • 反爬验证等待与浏览器崩溃自动恢复
  • 断点续爬功能
  • 批量航司处理
  • xlsx/csv/json三种导出格式
  • 自定义HTTP请求头

使用示例:
  # 默认实例数 (CPU核心数)
  fleetradar

  # 指定4个浏览器实例,只抓取两个航司
  fleetradar 4 -a "Aegean Airlines" -a "Lufthansa"

  # 从文件批量处理航司,导出CSV
  fleetradar -f airlines.txt --format csv

  # 验证HTTP头部配置
  fleetradar --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 解析浏览器实例数 (可选位置参数,默认CPU核心数)
		instances, err := parseInstancesArg(args)
		if err != nil {
			return err
		}

		// 设置信号处理(Ctrl+C优雅退出)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
			cancel()

			// 第二次信号直接退出
			<-sigChan
			utils.Errorf("收到第二次中断信号,强制退出")
			os.Exit(1)
		}()

		// 加载配置
		appConfig, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 创建HTTP头部管理器
		headerManager, err := core.NewHeaderManager(configFile, headers)
		if err != nil {
			return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
		}

		// 如果用户请求验证配置
		if validateConfig {
			return runValidateConfig(headerManager)
		}

		// 从文件加载航司列表 (批量模式)
		var fileAirlines []string
		if airlineFile != "" {
			fileAirlines, err = utils.ReadAirlinesFromFile(airlineFile)
			if err != nil {
				return fmt.Errorf("读取航司列表文件失败: %w", err)
			}
		}

		// 验证参数
		if err := ValidateFlags(instances, waitTime, maxAircraft, mode, format); err != nil {
			return err
		}

		// 命令行参数覆盖配置文件
		appConfig.MergeCLIFlags(instances, waitTime, mode, headless, resume, maxAircraft, airlines)
		if cmd.Flags().Changed("output") {
			appConfig.Output.BaseDir = outputDir
		}
		if cmd.Flags().Changed("format") {
			appConfig.Export.Format = format
		}

		// 检查是否为批量处理模式
		if len(fileAirlines) > 0 {
			batchScraper := core.NewBatchScraper(appConfig, batchDelay, continueOnError, headerManager)

			if _, err := batchScraper.ScrapeBatch(ctx, fileAirlines); err != nil {
				return fmt.Errorf("批量抓取失败: %w", err)
			}

			utils.Info("✨ 批量抓取任务完成!")
			return nil
		}

		// 单任务抓取模式
		scraper, err := core.NewScraper(appConfig, headerManager)
		if err != nil {
			return fmt.Errorf("创建抓取器失败: %w", err)
		}

		if err := scraper.Run(ctx); err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}

		// 显示统计结果
		stats := scraper.GetStats()
		fmt.Println("\n==================================================")
		fmt.Println("📊 抓取统计")
		fmt.Println("==================================================")
		fmt.Printf("✅ 航司数: %d\n", stats.Airlines)
		fmt.Printf("✅ 飞机数: %d\n", stats.Aircraft)
		fmt.Printf("✅ 航班数: %d\n", stats.Flights)
		fmt.Printf("✅ 过站记录数: %d\n", stats.Records)
		fmt.Printf("✅ 机场数: %d\n", stats.Airports)
		fmt.Printf("❌ 失败飞机: %d\n", stats.FailedAircraft)
		if stats.SkippedAircraft > 0 {
			fmt.Printf("⏭️  跳过飞机(断点续爬): %d\n", stats.SkippedAircraft)
		}
		if stats.BotBlocks > 0 {
			fmt.Printf("🛡️  反爬拦截次数: %d\n", stats.BotBlocks)
		}
		if stats.BrowserRestarts > 0 {
			fmt.Printf("🔄 浏览器重启次数: %d\n", stats.BrowserRestarts)
		}
		fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
		fmt.Println("==================================================")

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

// parseInstancesArg 解析位置参数中的浏览器实例数
// 省略时默认为CPU核心数,超过核心数时给出警告
func parseInstancesArg(args []string) (int, error) {
	if len(args) == 0 {
		return runtime.NumCPU(), nil
	}

	instances, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("浏览器实例数必须是整数: %s", args[0])
	}
	if instances < 1 {
		return 0, fmt.Errorf("浏览器实例数必须大于0,当前值: %d", instances)
	}

	if cores := runtime.NumCPU(); instances > cores {
		utils.Warnf("⚠️ 浏览器实例数(%d)超过CPU核心数(%d),可能导致性能下降", instances, cores)
	}

	return instances, nil
}

// runValidateConfig 验证HTTP头部配置并显示结果
func runValidateConfig(headerManager *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	// 显示合并后的头部(脱敏)
	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fleetradar %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 多浏览器实例航班数据抓取工具")
	},
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 抓取参数
	rootCmd.Flags().IntVarP(&waitTime, "wait", "w", 3, "页面等待时间(秒)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "auto", "获取模式 (auto|browser|http)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "从检查点恢复")
	rootCmd.Flags().IntVar(&maxAircraft, "max-aircraft", 0, "每个航司最多处理的飞机数 (0=不限)")
	rootCmd.Flags().StringSliceVarP(&airlines, "airlines", "a", []string{}, "航司名称过滤,可多次指定")
	rootCmd.Flags().StringVarP(&airlineFile, "airline-file", "f", "", "包含航司名称列表的文件路径 (批量模式)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "output", "输出目录")
	rootCmd.Flags().StringVar(&format, "format", "xlsx", "导出格式 (xlsx|csv|json)")

	// 批量处理参数
	rootCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理航司间延迟(秒)")
	rootCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")

	// 添加子命令
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
