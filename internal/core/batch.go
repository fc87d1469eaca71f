package core

import (
	"context"
	"fmt"
	"time"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

// BatchScraper 批量航司抓取器
// 逐个航司运行完整抓取流程,航司之间可配置延迟,
// 用于从文件加载大量航司时分批处理避免触发反爬限制
type BatchScraper struct {
	config         *Config
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
}

// BatchResult 单个航司的抓取结果
type BatchResult struct {
	Airline     string
	Success     bool
	Error       error
	Stats       models.TaskStats
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量抓取摘要
type BatchSummary struct {
	TotalAirlines int
	SuccessCount  int
	FailCount     int
	TotalRecords  int
	TotalAircraft int
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchScraper 创建批量抓取器
func NewBatchScraper(cfg *Config, batchDelay int, continueOnErr bool, headerProvider models.HeaderProvider) *BatchScraper {
	return &BatchScraper{
		config:         cfg,
		batchDelay:     time.Duration(batchDelay) * time.Second,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
	}
}

// ScrapeBatch 批量抓取航司列表
func (bs *BatchScraper) ScrapeBatch(ctx context.Context, airlines []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量抓取: %d个航司", len(airlines))

	summary := &BatchSummary{
		TotalAirlines: len(airlines),
		Results:       make([]BatchResult, 0, len(airlines)),
	}

	startTime := time.Now()

	for i, airline := range airlines {
		if err := ctx.Err(); err != nil {
			utils.Warnf("批量抓取被取消")
			break
		}

		utils.Infof("\n==================== [%d/%d] ====================", i+1, len(airlines))
		utils.Infof("航司: %s", airline)

		result := bs.scrapeSingleAirline(ctx, airline)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalRecords += result.Stats.Records
			summary.TotalAircraft += result.Stats.Aircraft
		} else {
			summary.FailCount++
			utils.Errorf("❌ 抓取失败: %v", result.Error)

			// 如果不继续处理错误,则停止
			if !bs.continueOnErr {
				utils.Warn("批量抓取中止 (--continue-on-error=false)")
				break
			}
		}

		// 批量延迟(最后一个航司不需要延迟)
		if i < len(airlines)-1 && bs.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个航司...", bs.batchDelay.Seconds())
			select {
			case <-ctx.Done():
			case <-time.After(bs.batchDelay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()

	bs.printSummary(summary)

	return summary, nil
}

// scrapeSingleAirline 抓取单个航司
func (bs *BatchScraper) scrapeSingleAirline(ctx context.Context, airline string) BatchResult {
	result := BatchResult{
		Airline:     airline,
		ProcessedAt: time.Now(),
	}

	startTime := time.Now()

	// 克隆配置,把航司过滤限定为当前航司
	cfg := *bs.config
	cfg.Scrape.Airlines = []string{airline}

	scraper, err := NewScraper(&cfg, bs.headerProvider)
	if err != nil {
		result.Success = false
		result.Error = fmt.Errorf("创建抓取器失败: %w", err)
		result.Duration = time.Since(startTime).Seconds()
		return result
	}

	if err := scraper.Run(ctx); err != nil {
		result.Success = false
		result.Error = err
	} else {
		result.Success = true
	}

	result.Stats = scraper.GetStats()
	result.Duration = time.Since(startTime).Seconds()
	return result
}

// printSummary 显示批量抓取摘要
func (bs *BatchScraper) printSummary(summary *BatchSummary) {
	utils.Infof("\n==================== 批量抓取摘要 ====================")
	utils.Infof("航司总数: %d", summary.TotalAirlines)
	utils.Infof("成功: %d", summary.SuccessCount)
	utils.Infof("失败: %d", summary.FailCount)
	utils.Infof("飞机总数: %d", summary.TotalAircraft)
	utils.Infof("过站记录总数: %d", summary.TotalRecords)
	utils.Infof("总耗时: %.2f秒", summary.TotalDuration)

	for _, result := range summary.Results {
		status := "✅"
		if !result.Success {
			status = "❌"
		}
		utils.Infof("%s %s (%.2f秒, %d条记录)", status, result.Airline,
			result.Duration, result.Stats.Records)
	}
}
