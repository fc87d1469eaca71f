package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

// XLSXExporter Excel格式导出器
type XLSXExporter struct{}

// NewXLSXExporter 创建Excel导出器
func NewXLSXExporter() Exporter {
	return &XLSXExporter{}
}

// Export 导出记录到xlsx文件
// 第一行为表头,空值单元格保持空白不写入
func (e *XLSXExporter) Export(rows []Row, filename string) (string, error) {
	path := filename + ".xlsx"

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			utils.Warnf("关闭Excel文件失败: %v", err)
		}
	}()

	sheet := f.GetSheetName(0)

	// 写表头并加粗
	if err := writeRow(f, sheet, 1, models.ExportHeaders); err != nil {
		return "", err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return "", fmt.Errorf("创建表头样式失败: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return "", fmt.Errorf("设置表头样式失败: %w", err)
	}

	// 写数据行
	for i, row := range rows {
		if err := writeRow(f, sheet, i+2, row.Values()); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存Excel文件失败 [%s]: %w", path, err)
	}

	utils.Infof("📊 已导出 %d 条记录: %s", len(rows), path)
	return path, nil
}

// writeRow 将values写入第rowNum行 (1-based),跳过空值
func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	for col, value := range values {
		if value == "" {
			continue
		}

		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return fmt.Errorf("计算单元格坐标失败: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("写入单元格失败 [%s]: %w", cell, err)
		}
	}
	return nil
}
