package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/SkyAshes/fleetradar/internal/utils"
)

// JSONExporter JSON格式导出器
type JSONExporter struct{}

// NewJSONExporter 创建JSON导出器
func NewJSONExporter() Exporter {
	return &JSONExporter{}
}

// Export 导出记录到json文件
func (e *JSONExporter) Export(rows []Row, filename string) (string, error) {
	path := filename + ".json"

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化记录失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入JSON文件失败 [%s]: %w", path, err)
	}

	utils.Infof("📊 已导出 %d 条记录: %s", len(rows), path)
	return path, nil
}
