package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Checkpoint 检查点
// 记录已处理的飞机注册号,支持中断后跳过已完成的部分
type Checkpoint struct {
	// 任务信息
	TaskID  string `json:"task_id"`  // 关联的任务ID
	BaseURL string `json:"base_url"` // 目标站点根URL

	// 进度信息
	ProcessedRegistrations []string `json:"processed_registrations"` // 已处理的注册号
	FailedRegistrations    []string `json:"failed_registrations"`    // 失败的注册号
	CompletedAirlines      []string `json:"completed_airlines"`      // 已完成的航司

	// 统计信息
	Stats TaskStats `json:"stats"` // 当前统计

	// 时间戳
	CreatedAt time.Time `json:"created_at"` // 检查点创建时间
	UpdatedAt time.Time `json:"updated_at"` // 最后更新时间

	// 配置快照
	Config ScrapeConfig `json:"config"` // 配置快照
}

// CheckpointFilename 生成检查点文件名
func CheckpointFilename(domain string) string {
	return fmt.Sprintf("checkpoint_%s.json", domain)
}

// IsProcessed 判断注册号是否已处理
func (c *Checkpoint) IsProcessed(registration string) bool {
	for _, reg := range c.ProcessedRegistrations {
		if reg == registration {
			return true
		}
	}
	return false
}

// ToJSON 序列化为JSON
func (c *Checkpoint) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON 从JSON反序列化
func (c *Checkpoint) FromJSON(data []byte) error {
	return json.Unmarshal(data, c)
}

// SaveToFile 保存到文件
func (c *Checkpoint) SaveToFile(filepath string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadCheckpointFromFile 从文件加载
func LoadCheckpointFromFile(filepath string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := cp.FromJSON(data); err != nil {
		return nil, err
	}

	return &cp, nil
}
