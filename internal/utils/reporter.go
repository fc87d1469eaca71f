package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	domain    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, domain string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		domain:    domain,
	}
}

// GenerateReport 生成抓取报告
func (r *Reporter) GenerateReport(
	task *models.ScrapeTask,
	airlines []models.AirlineSummary,
	failedAircraft []models.FailedAircraftInfo,
	exportFile string,
) error {
	reportsDir := filepath.Join(r.outputDir, r.domain, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	report := models.ScrapeReport{
		TaskID:         task.ID,
		BaseURL:        task.BaseURL,
		StartTime:      time.Now().Add(-time.Duration(task.Stats.Duration) * time.Second),
		EndTime:        time.Now(),
		Duration:       task.Stats.Duration,
		Stats:          task.Stats,
		Airlines:       airlines,
		FailedAircraft: failedAircraft,
		OutputDir:      filepath.Join(r.outputDir, r.domain),
		ExportFile:     exportFile,
		Config:         task.Config,
	}

	// 保存主报告
	if err := r.saveJSONReport(reportsDir, "scrape_report.json", report); err != nil {
		return err
	}

	// 保存航司摘要
	if err := r.saveJSONReport(reportsDir, "airlines.json", airlines); err != nil {
		return err
	}

	// 保存失败列表
	if err := r.saveJSONReport(reportsDir, "failed_aircraft.json", failedAircraft); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	path := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
