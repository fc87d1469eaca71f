package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/SkyAshes/fleetradar/internal/scrapers"
)

// doctorCmd 环境诊断子命令
// 在正式抓取前检查Chrome、显示环境和输出目录是否就绪
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "诊断运行环境",
	Long: `检查抓取所需的运行环境:
  • Chrome/Chromium 浏览器是否可用
  • 图形显示环境 (非无头模式需要)
  • 输出目录是否可写`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("🔍 fleetradar 环境诊断")
		fmt.Println("==================================================")

		fmt.Printf("Go版本: %s\n", runtime.Version())
		fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("CPU核心数: %d\n", runtime.NumCPU())
		fmt.Println()

		ok := true

		// 检查Chrome
		if chromePath, err := scrapers.FindChrome(); err != nil {
			fmt.Println("❌ 未找到Chrome/Chromium浏览器")
			fmt.Println("   请安装Chrome后重试,或使用 --mode http 跳过浏览器")
			ok = false
		} else {
			fmt.Printf("✅ Chrome浏览器: %s\n", chromePath)
		}

		// 检查显示环境
		if err := scrapers.CheckDisplay(false); err != nil {
			fmt.Println("⚠️  未检测到图形显示环境 (DISPLAY为空)")
			if _, lookErr := exec.LookPath("Xvfb"); lookErr == nil {
				fmt.Println("   检测到Xvfb,可通过 xvfb-run 运行非无头模式")
			} else {
				fmt.Println("   非无头模式 (--headless=false) 将无法使用")
			}
		} else {
			fmt.Println("✅ 图形显示环境正常 (或无头模式无需显示)")
		}

		// 检查输出目录
		if err := checkWritable(outputDir); err != nil {
			fmt.Printf("❌ 输出目录不可写: %v\n", err)
			ok = false
		} else {
			fmt.Printf("✅ 输出目录可写: %s\n", outputDir)
		}

		fmt.Println("==================================================")
		if !ok {
			return fmt.Errorf("环境诊断未通过")
		}
		fmt.Println("✨ 环境诊断通过,可以开始抓取")
		return nil
	},
}

// checkWritable 通过写入临时文件检查目录可写性
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	probe := filepath.Join(dir, ".fleetradar_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
