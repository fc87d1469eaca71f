package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"github.com/SkyAshes/fleetradar/internal/models"
)

// DefaultBaseURL 默认目标站点
const DefaultBaseURL = "https://www.flightradar24.com"

// Config 应用程序配置
type Config struct {
	BaseURL string              `mapstructure:"base_url"`
	Scrape  models.ScrapeConfig `mapstructure:"scrape"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Output  OutputConfig        `mapstructure:"output"`
	Export  ExportConfig        `mapstructure:"export"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir          string `mapstructure:"base_dir"`
	DomainSeparation bool   `mapstructure:"domain_separation"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	Format   string `mapstructure:"format"`   // xlsx/csv/json
	Filename string `mapstructure:"filename"` // 不含扩展名
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".fleetradar"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在,使用默认值
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 目标站点默认值
	v.SetDefault("base_url", DefaultBaseURL)

	// 抓取配置默认值
	v.SetDefault("scrape.instances", runtime.NumCPU())
	v.SetDefault("scrape.wait_time", 3)
	v.SetDefault("scrape.mode", "auto")
	v.SetDefault("scrape.headless", true)
	v.SetDefault("scrape.resume", false)
	v.SetDefault("scrape.max_aircraft", 0)
	v.SetDefault("scrape.bot_wait_timeout", 60)
	v.SetDefault("scrape.safety_reserve_memory", 1024)
	v.SetDefault("scrape.safety_threshold", 500)
	v.SetDefault("scrape.cpu_load_threshold", 80)
	v.SetDefault("scrape.max_instances_limit", 16)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.base_dir", "output")
	v.SetDefault("output.domain_separation", true)

	// 导出配置默认值
	v.SetDefault("export.format", "xlsx")
	v.SetDefault("export.filename", "Output")
}

// GetScrapeConfig 从配置中提取抓取配置
func (c *Config) GetScrapeConfig() models.ScrapeConfig {
	return c.Scrape
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	instances int,
	waitTime int,
	mode string,
	headless bool,
	resume bool,
	maxAircraft int,
	airlines []string,
) {
	if instances > 0 {
		c.Scrape.Instances = instances
	}
	if waitTime >= 0 {
		c.Scrape.WaitTime = waitTime
	}
	if mode != "" {
		c.Scrape.Mode = models.FetchMode(mode)
	}
	c.Scrape.Headless = headless
	c.Scrape.Resume = resume
	if maxAircraft > 0 {
		c.Scrape.MaxAircraft = maxAircraft
	}
	if len(airlines) > 0 {
		c.Scrape.Airlines = airlines
	}
}
