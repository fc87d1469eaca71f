package core

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SkyAshes/fleetradar/internal/export"
	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/scrapers"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

// checkpointSaveInterval 每处理多少架飞机保存一次检查点
const checkpointSaveInterval = 10

// Scraper 主抓取协调器
// 职责: 串联完整抓取流程(航司列表 -> 机队 -> 飞机详情 -> 配对 -> 导出),
// 管理浏览器池/资源监控/检查点的生命周期
type Scraper struct {
	config *Config
	task   *models.ScrapeTask

	baseURL string
	domain  string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 共享机场数据库
	airports *models.AirportDB

	// 抓取基础设施
	monitor *scrapers.ResourceMonitor
	pool    *scrapers.BrowserPool
	queue   *scrapers.FleetQueue
	scraper *scrapers.FleetScraper

	// 检查点
	checkpoint     *models.Checkpoint
	checkpointPath string
	cpMu           sync.Mutex

	// 导出行 (worker回调并发追加)
	rows   []export.Row
	rowsMu sync.Mutex

	// 航司摘要 (按航司名)
	summaries   map[string]*models.AirlineSummary
	summariesMu sync.Mutex

	// 回调计数,控制检查点保存频率
	completedCount int
}

// NewScraper 创建主抓取协调器
func NewScraper(cfg *Config, headerProvider models.HeaderProvider) (*Scraper, error) {
	parsedURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("解析目标URL失败: %w", err)
	}
	domain := parsedURL.Host
	if domain == "" {
		return nil, fmt.Errorf("无法从URL中提取域名: %s", cfg.BaseURL)
	}

	task, err := models.NewScrapeTask(cfg.BaseURL, cfg.Scrape)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		config:         cfg,
		task:           task,
		baseURL:        cfg.BaseURL,
		domain:         domain,
		headerProvider: headerProvider,
		airports:       models.NewAirportDB(),
		summaries:      make(map[string]*models.AirlineSummary),
		rows:           make([]export.Row, 0),
	}, nil
}

// Run 执行抓取任务
// 执行流程:
//  1. 创建输出目录结构
//  2. 启动资源监控和浏览器池
//  3. 抓取航司列表并按配置过滤
//  4. 抓取各航司机队,飞机任务入队 (断点续传时跳过已处理)
//  5. worker池抓取飞机详情,配对过站记录
//  6. 导出数据,生成报告,保存检查点
func (s *Scraper) Run(ctx context.Context) error {
	startTime := time.Now()
	now := time.Now()
	s.task.StartedAt = &now
	s.task.Status = models.TaskStatusRunning

	utils.Infof("🚀 开始抓取任务")
	utils.Infof("目标站点: %s", s.baseURL)
	utils.Infof("浏览器实例数: %d", s.config.Scrape.Instances)
	utils.Infof("获取模式: %s", s.config.Scrape.Mode)
	utils.Infof("输出目录: %s", s.outputBase())

	// 创建输出目录结构
	if err := s.setupOutputDirectories(); err != nil {
		s.fail(err)
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	// 启动资源监控
	s.monitor = scrapers.NewResourceMonitor(scrapers.ResourceMonitorConfig{
		SafetyReserveMemory: int64(s.config.Scrape.SafetyReserveMemory) * 1024 * 1024,
		SafetyThreshold:     int64(s.config.Scrape.SafetyThreshold) * 1024 * 1024,
		CPULoadThreshold:    s.config.Scrape.CPULoadThreshold,
		MaxInstancesLimit:   s.config.Scrape.MaxInstancesLimit,
	})
	s.monitor.StartMonitoring(1 * time.Second)
	defer s.monitor.StopMonitoring()

	// 启动浏览器池 (http模式不需要浏览器)
	if s.config.Scrape.Mode != models.ModeHTTP {
		pool, err := scrapers.NewBrowserPool(ctx, scrapers.BrowserPoolConfig{
			Instances: s.config.Scrape.Instances,
			Headless:  s.config.Scrape.Headless,
		}, s.monitor)
		if err != nil {
			s.fail(err)
			return err
		}
		s.pool = pool
		defer s.pool.Close()

		// 内存压力大时主动缩减浏览器池
		go s.superviseResources(ctx)
	}

	// HTTP直连获取器 (browser模式不需要)
	var fetcher *scrapers.StaticFetcher
	if s.config.Scrape.Mode != models.ModeBrowser {
		fetcher = scrapers.NewStaticFetcher(s.config.Scrape, s.headerProvider)
	}

	// 任务队列与机队抓取器
	s.queue = scrapers.NewFleetQueue()
	parser := scrapers.NewPageParser(s.airports)
	s.scraper = scrapers.NewFleetScraper(ctx, s.baseURL, s.config.Scrape,
		s.pool, s.queue, parser, fetcher, s.headerProvider)

	// 断点续传: 加载检查点
	if err := s.loadCheckpoint(); err != nil {
		utils.Warnf("加载检查点失败,从头开始: %v", err)
	}

	// 抓取航司列表
	airlines, err := s.scraper.ScrapeAirlines(ctx)
	if err != nil {
		s.fail(err)
		return err
	}

	// 按配置过滤航司
	airlines = s.filterAirlines(airlines)
	if len(airlines) == 0 {
		s.fail(fmt.Errorf("没有匹配的航司"))
		return fmt.Errorf("没有匹配过滤条件的航司")
	}
	utils.Infof("待处理航司: %d 个", len(airlines))

	// 抓取机队并入队飞机任务
	totalJobs, err := s.enqueueFleets(ctx, airlines)
	if err != nil {
		s.fail(err)
		return err
	}

	if totalJobs == 0 {
		utils.Warnf("没有待抓取的飞机 (可能全部已处理)")
	} else {
		// worker池抓取飞机详情
		bar := utils.NewProgressBar(totalJobs, "✈️  抓取飞机")

		callback := func(airline *models.Airline, aircraft *models.Aircraft, err error) {
			_ = bar.Add(1)
			if err == nil {
				s.processAircraft(airline, aircraft)
			}
			s.afterAircraft(aircraft, err)
		}

		if err := s.scraper.RunWorkers(ctx, s.workerCount(), callback); err != nil {
			s.fail(err)
			return err
		}
		fmt.Println()
	}

	// 合并统计
	s.mergeStats(airlines)
	s.task.Stats.Duration = time.Since(startTime).Seconds()

	// 导出数据
	exportFile, err := s.exportRows()
	if err != nil {
		s.fail(err)
		return err
	}

	// 生成报告
	reporter := utils.NewReporter(s.config.Output.BaseDir, s.domain)
	if err := reporter.GenerateReport(s.task, s.airlineSummaries(), s.scraper.FailedAircraft(), exportFile); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	// 保存最终检查点
	s.saveCheckpoint()

	completed := time.Now()
	s.task.CompletedAt = &completed
	s.task.Status = models.TaskStatusCompleted

	utils.Infof("✅ 抓取任务完成")
	utils.Infof("航司数: %d", s.task.Stats.Airlines)
	utils.Infof("飞机数: %d (失败 %d, 跳过 %d)", s.task.Stats.Aircraft,
		s.task.Stats.FailedAircraft, s.task.Stats.SkippedAircraft)
	utils.Infof("航班数: %d", s.task.Stats.Flights)
	utils.Infof("过站记录数: %d", s.task.Stats.Records)
	utils.Infof("总耗时: %.2f秒", s.task.Stats.Duration)

	return nil
}

// GetTask 返回任务信息
func (s *Scraper) GetTask() *models.ScrapeTask {
	return s.task
}

// GetStats 返回统计信息
func (s *Scraper) GetStats() models.TaskStats {
	return s.task.Stats
}

// fail 标记任务失败
func (s *Scraper) fail(err error) {
	s.task.Status = models.TaskStatusFailed
	s.task.ErrorMessage = err.Error()
}

// outputBase 输出根目录: output/domain/
func (s *Scraper) outputBase() string {
	if s.config.Output.DomainSeparation {
		return filepath.Join(s.config.Output.BaseDir, s.domain)
	}
	return s.config.Output.BaseDir
}

// setupOutputDirectories 创建输出目录结构
func (s *Scraper) setupOutputDirectories() error {
	basePath := s.outputBase()

	dirs := []string{
		filepath.Join(basePath, "data"),        // 导出数据文件
		filepath.Join(basePath, "reports"),     // 报告文件
		filepath.Join(basePath, "checkpoints"), // 检查点文件
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
		utils.Debugf("创建目录: %s", dir)
	}

	utils.Infof("✅ 输出目录结构创建完成: %s", basePath)
	return nil
}

// superviseResources 周期性检查内存压力,必要时缩减浏览器池
func (s *Scraper) superviseResources(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := s.pool.CurrentSize()
			if shouldScale, target, reason := s.monitor.ShouldScaleDown(current); shouldScale && target < current {
				utils.Warnf("⚠️ %s", reason)
				s.pool.ScaleDown(target)
			}
		}
	}
}

// workerCount worker数量与实际启动的浏览器实例数保持一致
func (s *Scraper) workerCount() int {
	if s.pool != nil {
		return s.pool.CurrentSize()
	}
	return s.config.Scrape.Instances
}

// filterAirlines 按配置过滤航司列表 (名称不区分大小写精确匹配)
func (s *Scraper) filterAirlines(airlines []*models.Airline) []*models.Airline {
	if len(s.config.Scrape.Airlines) == 0 {
		return airlines
	}

	filtered := make([]*models.Airline, 0, len(s.config.Scrape.Airlines))
	for _, airline := range airlines {
		for _, want := range s.config.Scrape.Airlines {
			if strings.EqualFold(airline.Name, want) {
				filtered = append(filtered, airline)
				break
			}
		}
	}

	return filtered
}

// enqueueFleets 抓取各航司机队并把飞机任务入队
// 返回实际入队的任务数
func (s *Scraper) enqueueFleets(ctx context.Context, airlines []*models.Airline) (int, error) {
	totalJobs := 0

	for _, airline := range airlines {
		if err := ctx.Err(); err != nil {
			return totalJobs, err
		}

		if err := s.scraper.ScrapeFleet(ctx, airline); err != nil {
			utils.Errorf("❌ 抓取机队失败 [%s]: %v", airline.Name, err)
			continue
		}

		s.summariesMu.Lock()
		s.summaries[airline.Name] = &models.AirlineSummary{
			Name:          airline.Name,
			Link:          airline.Link,
			AircraftCount: len(airline.Aircraft),
		}
		s.summariesMu.Unlock()

		enqueued := 0
		for _, aircraft := range airline.Aircraft {
			// 每个航司的飞机数上限
			if s.config.Scrape.MaxAircraft > 0 && enqueued >= s.config.Scrape.MaxAircraft {
				break
			}

			// 断点续传: 跳过已处理的注册号
			if s.queue.IsProcessed(aircraft.Registration) {
				s.task.Stats.SkippedAircraft++
				continue
			}

			if err := s.queue.Push(models.FleetJob{Airline: airline, Aircraft: aircraft}); err != nil {
				utils.Debugf("跳过入队: %v", err)
				continue
			}
			enqueued++
		}

		totalJobs += enqueued
	}

	utils.Infof("已入队 %d 架飞机 (跳过 %d)", totalJobs, s.task.Stats.SkippedAircraft)
	return totalJobs, nil
}

// processAircraft 把单架飞机的航班历史配对成过站记录并生成导出行
func (s *Scraper) processAircraft(airline *models.Airline, aircraft *models.Aircraft) {
	flights := aircraft.OrderedFlights()
	records := PairFlights(flights)

	if len(records) == 0 {
		return
	}

	// 每架飞机独立的信息映射,避免上一架飞机的值串到下一架
	info := make(map[string]string, len(models.ExportHeaders))
	models.WriteInfo(info, airline)
	models.WriteInfo(info, aircraft)

	rows := make([]export.Row, 0, len(records))
	for _, record := range records {
		models.WriteInfo(info, record)
		rows = append(rows, export.NewRow(info))
	}

	s.rowsMu.Lock()
	s.rows = append(s.rows, rows...)
	s.rowsMu.Unlock()

	s.summariesMu.Lock()
	if summary, ok := s.summaries[airline.Name]; ok {
		summary.FlightCount += len(aircraft.Flights)
		summary.RecordCount += len(records)
	}
	s.summariesMu.Unlock()
}

// afterAircraft 更新检查点进度,周期性落盘
func (s *Scraper) afterAircraft(aircraft *models.Aircraft, err error) {
	s.cpMu.Lock()
	defer s.cpMu.Unlock()

	if s.checkpoint == nil {
		s.checkpoint = &models.Checkpoint{
			TaskID:    s.task.ID,
			BaseURL:   s.baseURL,
			CreatedAt: time.Now(),
			Config:    s.config.Scrape,
		}
	}

	if err != nil {
		s.checkpoint.FailedRegistrations = append(s.checkpoint.FailedRegistrations, aircraft.Registration)
	} else {
		s.checkpoint.ProcessedRegistrations = append(s.checkpoint.ProcessedRegistrations, aircraft.Registration)
	}

	s.completedCount++
	if s.completedCount%checkpointSaveInterval == 0 {
		s.persistCheckpointLocked()
	}
}

// loadCheckpoint 加载检查点并预填充已处理集合
func (s *Scraper) loadCheckpoint() error {
	s.checkpointPath = filepath.Join(s.outputBase(), "checkpoints",
		models.CheckpointFilename(s.domain))

	if !s.config.Scrape.Resume {
		return nil
	}

	cp, err := models.LoadCheckpointFromFile(s.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			utils.Infof("没有找到检查点文件,从头开始")
			return nil
		}
		return err
	}

	if cp.BaseURL != s.baseURL {
		utils.Warnf("检查点目标站点不匹配 (%s != %s),忽略检查点", cp.BaseURL, s.baseURL)
		return nil
	}

	s.checkpoint = cp
	s.checkpoint.TaskID = s.task.ID
	s.queue.PreloadProcessed(cp.ProcessedRegistrations)

	utils.Infof("📥 已加载检查点: %d 架飞机已处理", len(cp.ProcessedRegistrations))
	return nil
}

// saveCheckpoint 保存检查点到文件
func (s *Scraper) saveCheckpoint() {
	s.cpMu.Lock()
	defer s.cpMu.Unlock()
	s.persistCheckpointLocked()
}

// persistCheckpointLocked 落盘检查点,调用方必须持有cpMu
func (s *Scraper) persistCheckpointLocked() {
	if s.checkpoint == nil || s.checkpointPath == "" {
		return
	}

	s.checkpoint.UpdatedAt = time.Now()
	s.checkpoint.Stats = s.task.Stats

	if err := s.checkpoint.SaveToFile(s.checkpointPath); err != nil {
		utils.Warnf("保存检查点失败: %v", err)
		return
	}
	utils.Debugf("检查点已保存: %s", s.checkpointPath)
}

// mergeStats 合并抓取器统计到任务
func (s *Scraper) mergeStats(airlines []*models.Airline) {
	scraperStats := s.scraper.Stats()

	s.task.Stats.Airlines = len(airlines)
	s.task.Stats.Aircraft = scraperStats.Aircraft
	s.task.Stats.Flights = scraperStats.Flights
	s.task.Stats.FailedAircraft = scraperStats.FailedAircraft
	s.task.Stats.VisitedPages = scraperStats.VisitedPages
	s.task.Stats.BotBlocks = scraperStats.BotBlocks
	s.task.Stats.BrowserRestarts = scraperStats.BrowserRestarts
	s.task.Stats.Airports = s.airports.Len()

	s.rowsMu.Lock()
	s.task.Stats.Records = len(s.rows)
	s.rowsMu.Unlock()
}

// exportRows 按配置格式导出过站记录
func (s *Scraper) exportRows() (string, error) {
	s.rowsMu.Lock()
	rows := s.rows
	s.rowsMu.Unlock()

	exporter, err := export.NewExporter(models.ExportFormat(s.config.Export.Format))
	if err != nil {
		return "", err
	}

	filename := filepath.Join(s.outputBase(), "data", s.config.Export.Filename)
	path, err := exporter.Export(rows, filename)
	if err != nil {
		return "", fmt.Errorf("导出数据失败: %w", err)
	}
	return path, nil
}

// airlineSummaries 返回航司摘要列表
func (s *Scraper) airlineSummaries() []models.AirlineSummary {
	s.summariesMu.Lock()
	defer s.summariesMu.Unlock()

	result := make([]models.AirlineSummary, 0, len(s.summaries))
	for _, summary := range s.summaries {
		result = append(result, *summary)
	}
	return result
}
