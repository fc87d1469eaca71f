package export

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/SkyAshes/fleetradar/internal/utils"
)

// CSVExporter CSV格式导出器
type CSVExporter struct{}

// NewCSVExporter 创建CSV导出器
func NewCSVExporter() Exporter {
	return &CSVExporter{}
}

// Export 导出记录到csv文件
func (e *CSVExporter) Export(rows []Row, filename string) (string, error) {
	path := filename + ".csv"

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建CSV文件失败 [%s]: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("写入CSV文件失败 [%s]: %w", path, err)
	}

	utils.Infof("📊 已导出 %d 条记录: %s", len(rows), path)
	return path, nil
}
