package models

import (
	"encoding/json"
	"time"
)

// ScrapeReport 抓取报告
type ScrapeReport struct {
	// 任务信息
	TaskID  string `json:"task_id"`
	BaseURL string `json:"base_url"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 航司摘要
	Airlines []AirlineSummary `json:"airlines"`

	// 失败列表
	FailedAircraft []FailedAircraftInfo `json:"failed_aircraft"`

	// 输出路径
	OutputDir  string `json:"output_dir"`  // 输出目录
	ExportFile string `json:"export_file"` // 导出数据文件

	// 配置快照
	Config ScrapeConfig `json:"config"`
}

// AirlineSummary 单个航司的抓取摘要
type AirlineSummary struct {
	Name          string `json:"name"`
	Link          string `json:"link"`
	AircraftCount int    `json:"aircraft_count"` // 机队规模
	FlightCount   int    `json:"flight_count"`   // 解析的航班数
	RecordCount   int    `json:"record_count"`   // 生成的过站记录数
}

// FailedAircraftInfo 失败飞机信息
type FailedAircraftInfo struct {
	Registration string `json:"registration"`
	Airline      string `json:"airline"`
	Link         string `json:"link"`
	ErrorType    string `json:"error_type"` // timeout, bot_blocked, parse_error等
	ErrorMsg     string `json:"error_msg"`
	Retries      int    `json:"retries"`
}

// ToJSON 序列化为JSON
func (r *ScrapeReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *ScrapeReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
