package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消
)

// FetchMode 页面获取模式
type FetchMode string

const (
	ModeAuto    FetchMode = "auto"    // HTTP优先,遇到反爬保护时回退到浏览器
	ModeBrowser FetchMode = "browser" // 仅无头浏览器
	ModeHTTP    FetchMode = "http"    // 仅HTTP直连
)

// ExportFormat 导出格式
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// TaskStats 任务统计
type TaskStats struct {
	Airlines        int     `json:"airlines"`         // 处理的航司数
	Aircraft        int     `json:"aircraft"`         // 处理的飞机数
	Flights         int     `json:"flights"`          // 解析的航班数
	Records         int     `json:"records"`          // 生成的过站记录数
	Airports        int     `json:"airports"`         // 收录的机场数
	FailedAircraft  int     `json:"failed_aircraft"`  // 失败的飞机数
	SkippedAircraft int     `json:"skipped_aircraft"` // 跳过的飞机数 (断点续爬)
	VisitedPages    int     `json:"visited_pages"`    // 访问的页面数
	BotBlocks       int     `json:"bot_blocks"`       // 触发反爬保护的次数
	BrowserRestarts int     `json:"browser_restarts"` // 浏览器重启次数
	Duration        float64 `json:"duration"`         // 总耗时(秒)
}

// Merge 将另一份统计累加到当前统计
func (s *TaskStats) Merge(other TaskStats) {
	s.Airlines += other.Airlines
	s.Aircraft += other.Aircraft
	s.Flights += other.Flights
	s.Records += other.Records
	s.FailedAircraft += other.FailedAircraft
	s.SkippedAircraft += other.SkippedAircraft
	s.VisitedPages += other.VisitedPages
	s.BotBlocks += other.BotBlocks
	s.BrowserRestarts += other.BrowserRestarts
}

// ScrapeConfig 抓取配置
type ScrapeConfig struct {
	Instances   int       `json:"instances"`    // 浏览器实例数 (默认:CPU核心数)
	WaitTime    int       `json:"wait_time"`    // 页面等待时间(秒) (默认:3)
	Mode        FetchMode `json:"mode"`         // 获取模式 (默认:auto)
	Headless    bool      `json:"headless"`     // 无头模式 (默认:true)
	Resume      bool      `json:"resume"`       // 是否从检查点恢复
	MaxAircraft int       `json:"max_aircraft"` // 每个航司最多处理的飞机数 (0=不限)

	// BotWaitTimeout 反爬验证页面的最长等待时间(秒),每秒轮询一次 (0=默认60)
	BotWaitTimeout int `json:"bot_wait_timeout"`

	// Airlines 航司名称过滤,为空时抓取全部航司
	Airlines []string `json:"airlines,omitempty"`

	// 资源配置 (MB / %)
	SafetyReserveMemory int `json:"safety_reserve_memory"` // 安全保留内存(MB)
	SafetyThreshold     int `json:"safety_threshold"`      // 安全阈值(MB)
	CPULoadThreshold    int `json:"cpu_load_threshold"`    // CPU负载阈值(%)
	MaxInstancesLimit   int `json:"max_instances_limit"`   // 绝对最大实例数
}

// Validate 验证配置
func (c *ScrapeConfig) Validate() error {
	if c.Instances < 1 || c.Instances > 64 {
		return fmt.Errorf("浏览器实例数必须在1-64之间")
	}
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间")
	}
	if c.MaxAircraft < 0 {
		return fmt.Errorf("飞机数上限不能为负数")
	}
	if c.BotWaitTimeout < 0 || c.BotWaitTimeout > 600 {
		return fmt.Errorf("反爬等待超时必须在0-600秒之间")
	}
	switch c.Mode {
	case ModeAuto, ModeBrowser, ModeHTTP:
	default:
		return fmt.Errorf("无效的获取模式: %s", c.Mode)
	}
	return nil
}

// ScrapeTask 抓取任务
type ScrapeTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	BaseURL     string     `json:"base_url"`               // 目标站点根URL
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config ScrapeConfig `json:"config"` // 抓取配置

	// 执行状态
	Status TaskStatus `json:"status"` // 任务状态

	// 统计信息
	Stats TaskStats `json:"stats"` // 任务统计

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"` // 错误消息
}

// NewScrapeTask 创建新任务
func NewScrapeTask(baseURL string, config ScrapeConfig) (*ScrapeTask, error) {
	if err := ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ScrapeTask{
		ID:        generateID(),
		BaseURL:   baseURL,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Stats:     TaskStats{},
	}, nil
}

// ToJSON 序列化为JSON
func (t *ScrapeTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *ScrapeTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}

// BatchScrapeTask 批量航司抓取任务
type BatchScrapeTask struct {
	// 基本信息
	ID          string     `json:"id"`
	AirlineFile string     `json:"airline_file"` // 航司列表文件路径
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// 配置
	Config          ScrapeConfig `json:"config"`            // 抓取配置
	BatchDelay      int          `json:"batch_delay"`       // 航司之间延迟(秒)
	ContinueOnError bool         `json:"continue_on_error"` // 遇到错误继续

	// 状态
	Status TaskStatus `json:"status"`

	// 统计
	TotalAirlines      int `json:"total_airlines"`
	SuccessfulAirlines int `json:"successful_airlines"`
	FailedAirlines     int `json:"failed_airlines"`
	TotalRecords       int `json:"total_records"`
}
