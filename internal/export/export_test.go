package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/SkyAshes/fleetradar/internal/models"
)

func sampleRow() Row {
	return NewRow(map[string]string{
		models.HeaderAirportName:     "Athens International Airport",
		models.HeaderAirportCode:     "LGAV",
		models.HeaderAirline:         "Aegean Airlines",
		models.HeaderTypeName:        "Airbus A320-232",
		models.HeaderTypeCode:        "A320",
		models.HeaderRegistration:    "SX-DGA",
		models.HeaderDate:            "01 Jun 2025",
		models.HeaderGroundTime:      "2:5:0",
		models.HeaderFromFlight:      "A3 801",
		models.HeaderFromAirport:     "Frankfurt Airport",
		models.HeaderFromAirportCode: "EDDF",
		models.HeaderArrivalTime:     "14:35",
		models.HeaderToFlight:        "A3 910",
		models.HeaderToAirport:       "Larnaca International Airport",
		models.HeaderToAirportCode:   "LCLK",
		models.HeaderDepartureTime:   "16:40",
	})
}

func TestNewRow(t *testing.T) {
	row := sampleRow()

	if row.Airline != "Aegean Airlines" {
		t.Errorf("Airline = %v, want Aegean Airlines", row.Airline)
	}
	if row.Registration != "SX-DGA" {
		t.Errorf("Registration = %v, want SX-DGA", row.Registration)
	}
	if row.GroundTime != "2:5:0" {
		t.Errorf("GroundTime = %v, want 2:5:0", row.GroundTime)
	}
}

func TestRow_Values(t *testing.T) {
	values := sampleRow().Values()

	if len(values) != len(models.ExportHeaders) {
		t.Fatalf("Values() 返回%d列, want %d", len(values), len(models.ExportHeaders))
	}

	// 列顺序必须与导出表头一致
	want := []string{
		"Athens International Airport", "LGAV", "Aegean Airlines", "Airbus A320-232",
		"A320", "SX-DGA", "01 Jun 2025", "2:5:0",
		"A3 801", "Frankfurt Airport", "EDDF",
		"14:35", "A3 910", "Larnaca International Airport",
		"LCLK", "16:40",
	}
	for i, w := range want {
		if values[i] != w {
			t.Errorf("values[%d] = %v, want %v (列: %s)", i, values[i], w, models.ExportHeaders[i])
		}
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  models.ExportFormat
		wantErr bool
	}{
		{models.FormatXLSX, false},
		{models.FormatCSV, false},
		{models.FormatJSON, false},
		{models.ExportFormat("pdf"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter(%v) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestCSVExporter_Export(t *testing.T) {
	tempDir := t.TempDir()
	filename := filepath.Join(tempDir, "Output")

	exporter := NewCSVExporter()
	outFile, err := exporter.Export([]Row{sampleRow()}, filename)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if !strings.HasSuffix(outFile, ".csv") {
		t.Errorf("输出文件名 = %v, 应以.csv结尾", outFile)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "AIRPORT NAME") {
		t.Error("CSV缺少表头")
	}
	if !strings.Contains(content, "SX-DGA") {
		t.Error("CSV缺少数据行")
	}
}

func TestJSONExporter_Export(t *testing.T) {
	tempDir := t.TempDir()
	filename := filepath.Join(tempDir, "Output")

	exporter := NewJSONExporter()
	outFile, err := exporter.Export([]Row{sampleRow()}, filename)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}

	var decoded []map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("JSON解析失败: %v", err)
	}

	if len(decoded) != 1 {
		t.Fatalf("JSON包含%d条记录, want 1", len(decoded))
	}
	if decoded[0]["REGISTRATION"] != "SX-DGA" {
		t.Errorf("REGISTRATION = %v, want SX-DGA", decoded[0]["REGISTRATION"])
	}
	if decoded[0]["GROUND TIME"] != "2:5:0" {
		t.Errorf("GROUND TIME = %v, want 2:5:0", decoded[0]["GROUND TIME"])
	}
}

func TestXLSXExporter_Export(t *testing.T) {
	tempDir := t.TempDir()
	filename := filepath.Join(tempDir, "Output")

	exporter := NewXLSXExporter()
	outFile, err := exporter.Export([]Row{sampleRow()}, filename)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if !strings.HasSuffix(outFile, ".xlsx") {
		t.Errorf("输出文件名 = %v, 应以.xlsx结尾", outFile)
	}

	info, err := os.Stat(outFile)
	if err != nil {
		t.Fatalf("导出文件不存在: %v", err)
	}
	if info.Size() == 0 {
		t.Error("导出文件为空")
	}

	f, err := excelize.OpenFile(outFile)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)

	if got, _ := f.GetCellValue(sheet, "A1"); got != "AIRPORT NAME" {
		t.Errorf("A1 = %v, want AIRPORT NAME", got)
	}
	if got, _ := f.GetCellValue(sheet, "F2"); got != "SX-DGA" {
		t.Errorf("F2 = %v, want SX-DGA", got)
	}

	// 表头行应应用了加粗样式(样式索引非0)
	styleID, err := f.GetCellStyle(sheet, "A1")
	if err != nil {
		t.Fatalf("读取表头样式失败: %v", err)
	}
	if styleID == 0 {
		t.Error("表头行未应用样式")
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("解析表头样式失败: %v", err)
	}
	if style.Font == nil || !style.Font.Bold {
		t.Error("表头字体应为加粗")
	}
}
