package main

import (
	"fmt"
	"os"

	"github.com/SkyAshes/fleetradar/internal/models"
)

// ValidateFlags 验证命令行参数
func ValidateFlags(instances, waitTime, maxAircraft int, mode, format string) error {
	// 验证浏览器实例数
	if instances < 1 || instances > 64 {
		return fmt.Errorf("浏览器实例数必须在1-64之间,当前值: %d", instances)
	}

	// 验证等待时间
	if waitTime < 0 || waitTime > 60 {
		return fmt.Errorf("页面等待时间必须在0-60秒之间,当前值: %d", waitTime)
	}

	// 验证飞机数上限
	if maxAircraft < 0 {
		return fmt.Errorf("飞机数上限不能为负数,当前值: %d", maxAircraft)
	}

	// 验证获取模式
	validModes := map[string]bool{
		string(models.ModeAuto):    true,
		string(models.ModeBrowser): true,
		string(models.ModeHTTP):    true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的获取模式: %s (支持: auto, browser, http)", mode)
	}

	// 验证导出格式
	validFormats := map[string]bool{
		string(models.FormatXLSX): true,
		string(models.FormatCSV):  true,
		string(models.FormatJSON): true,
	}
	if !validFormats[format] {
		return fmt.Errorf("无效的导出格式: %s (支持: xlsx, csv, json)", format)
	}

	return nil
}

// ValidateURL 验证目标站点URL格式
func ValidateURL(rawURL string) error {
	return models.ValidateURL(rawURL)
}

// ValidateAirlineFile 验证航司列表文件是否可读
func ValidateAirlineFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("航司列表文件不存在: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("航司列表路径是目录而不是文件: %s", path)
	}
	return nil
}
