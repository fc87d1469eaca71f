package scrapers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

const (
	// maxPageRetries 单架飞机页面的最大重试次数(浏览器崩溃后)
	maxPageRetries = 3

	// browserRestartDelay 浏览器崩溃后重启前的等待时间
	browserRestartDelay = 2 * time.Second

	// defaultBotWaitTimeout 反爬验证等待的默认上限(秒),配置未指定时使用
	defaultBotWaitTimeout = 60
)

// AircraftCallback 单架飞机抓取完成后的回调
// err非nil表示该飞机最终失败(已超过重试上限)
type AircraftCallback func(airline *models.Airline, aircraft *models.Aircraft, err error)

// FleetScraper 机队抓取器(使用Rod浏览器池)
// 职责: 驱动浏览器访问航司/机队/飞机页面,协调worker并发抓取,
// 处理反爬验证和浏览器崩溃恢复
type FleetScraper struct {
	baseURL string
	config  models.ScrapeConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 浏览器池与任务队列
	pool  *BrowserPool
	queue *FleetQueue

	// 页面解析器
	parser *PageParser

	// HTTP直连获取器 (http/auto模式使用,可为nil)
	fetcher *StaticFetcher

	// 统计
	stats models.TaskStats
	mu    sync.RWMutex

	// 失败飞机记录
	failedAircraft []models.FailedAircraftInfo
	failedMu       sync.Mutex

	// Worker活跃计数器(用于检测所有worker空闲)
	activeWorkers int32

	ctx context.Context
}

// NewFleetScraper 创建机队抓取器
func NewFleetScraper(
	ctx context.Context,
	baseURL string,
	config models.ScrapeConfig,
	pool *BrowserPool,
	queue *FleetQueue,
	parser *PageParser,
	fetcher *StaticFetcher,
	headerProvider models.HeaderProvider,
) *FleetScraper {
	return &FleetScraper{
		baseURL:        baseURL,
		config:         config,
		headerProvider: headerProvider,
		pool:           pool,
		queue:          queue,
		parser:         parser,
		fetcher:        fetcher,
		failedAircraft: make([]models.FailedAircraftInfo, 0),
		ctx:            ctx,
	}
}

// Stats 返回当前统计快照
func (fs *FleetScraper) Stats() models.TaskStats {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	stats := fs.stats
	if fs.pool != nil {
		stats.BrowserRestarts = fs.pool.Restarts()
	}
	return stats
}

// FailedAircraft 返回失败飞机列表快照
func (fs *FleetScraper) FailedAircraft() []models.FailedAircraftInfo {
	fs.failedMu.Lock()
	defer fs.failedMu.Unlock()
	result := make([]models.FailedAircraftInfo, len(fs.failedAircraft))
	copy(result, fs.failedAircraft)
	return result
}

// ScrapeAirlines 抓取航司列表
func (fs *FleetScraper) ScrapeAirlines(ctx context.Context) ([]*models.Airline, error) {
	utils.Infof("📥 抓取航司列表")

	html, err := fs.fetchListPage(ctx, fs.baseURL+"/data/airlines")
	if err != nil {
		return nil, fmt.Errorf("抓取航司列表失败: %w", err)
	}

	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}

	airlines, err := fs.parser.ParseAirlines(doc)
	if err != nil {
		return nil, err
	}

	utils.Infof("✅ 发现 %d 个航司", len(airlines))
	return airlines, nil
}

// ScrapeFleet 抓取单个航司的机队列表
func (fs *FleetScraper) ScrapeFleet(ctx context.Context, airline *models.Airline) error {
	utils.Infof("📥 抓取机队: %s", airline.Name)

	html, err := fs.fetchListPage(ctx, fs.baseURL+airline.Link+"/fleet")
	if err != nil {
		return fmt.Errorf("抓取机队失败 [%s]: %w", airline.Name, err)
	}

	doc, err := ParseDocument(html)
	if err != nil {
		return err
	}

	if err := fs.parser.ParseFleet(doc, airline); err != nil {
		return err
	}

	utils.Infof("航司 %s: %d 架飞机", airline.Name, len(airline.Aircraft))
	return nil
}

// fetchListPage 获取列表类页面(航司列表/机队列表)
// 按配置的模式选择HTTP直连或浏览器,auto模式遇到反爬保护时回退到浏览器
func (fs *FleetScraper) fetchListPage(ctx context.Context, pageURL string) (string, error) {
	fs.countVisitedPage()

	switch fs.config.Mode {
	case models.ModeHTTP:
		return fs.fetcher.Fetch(ctx, pageURL)

	case models.ModeAuto:
		html, err := fs.fetcher.Fetch(ctx, pageURL)
		if err == nil {
			return html, nil
		}
		if !errors.Is(err, ErrBotBlocked) {
			return "", err
		}
		utils.Warnf("HTTP直连被反爬保护拦截,回退到浏览器模式: %s", pageURL)
		fs.countBotBlock()
		return fs.fetchWithBrowser(ctx, pageURL)

	default:
		return fs.fetchWithBrowser(ctx, pageURL)
	}
}

// fetchWithBrowser 从池中借用浏览器获取单个页面
func (fs *FleetScraper) fetchWithBrowser(ctx context.Context, pageURL string) (string, error) {
	browser, err := fs.pool.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer fs.pool.Release(browser)

	return fs.RetrievePage(ctx, browser, pageURL)
}

// RetrievePage 在指定浏览器中打开页面并返回HTML
// 遇到反爬验证页面时每秒轮询一次,等待验证自动通过
func (fs *FleetScraper) RetrievePage(ctx context.Context, browser *rod.Browser, pageURL string) (string, error) {
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("创建标签页失败(浏览器可能已崩溃): %w", ErrBrowserCrashed)
	}
	defer page.Close()

	page = page.Context(ctx)

	// 应用自定义HTTP头部
	if fs.headerProvider != nil {
		if err := fs.applyHeaders(page); err != nil {
			utils.Warnf("应用HTTP头部失败: %v", err)
		}
	}

	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("页面导航失败 [%s]: %w", pageURL, err)
	}

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("等待页面加载失败 [%s]: %w", pageURL, err)
	}

	// 等待JS渲染完成
	if fs.config.WaitTime > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(fs.config.WaitTime) * time.Second):
		}
	}

	// 反爬验证轮询
	for poll := 0; ; poll++ {
		html, err := page.HTML()
		if err != nil {
			return "", fmt.Errorf("读取页面HTML失败 [%s]: %w", pageURL, err)
		}

		if !IsBotProtected(html) {
			return html, nil
		}

		if poll == 0 {
			utils.Warnf("⚠️ 触发反爬验证: %s", pageURL)
			fs.countBotBlock()
		}

		if poll >= fs.botWaitPolls() {
			return "", fmt.Errorf("反爬验证等待超时 [%s]: %w", pageURL, ErrBotBlocked)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// botWaitPolls 反爬验证的最大轮询次数(每次1秒),由配置的超时决定
func (fs *FleetScraper) botWaitPolls() int {
	if fs.config.BotWaitTimeout > 0 {
		return fs.config.BotWaitTimeout
	}
	return defaultBotWaitTimeout
}

// applyHeaders 将HeaderProvider提供的头部应用到页面
func (fs *FleetScraper) applyHeaders(page *rod.Page) error {
	headers, err := fs.headerProvider.GetHeaders()
	if err != nil {
		return err
	}
	if len(headers) == 0 {
		return nil
	}

	pairs := headerPairs(headers)
	if _, err := page.SetExtraHeaders(pairs); err != nil {
		return fmt.Errorf("设置页面头部失败: %w", err)
	}
	return nil
}

// headerPairs 把http.Header展开为rod需要的 [name, value, ...] 形式
func headerPairs(headers http.Header) []string {
	pairs := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		pairs = append(pairs, name, values[0])
	}
	return pairs
}

// RunWorkers 启动worker池消费飞机任务队列
// 每个worker持有一个浏览器实例; 所有worker空闲且队列为空时自动关闭队列并返回
func (fs *FleetScraper) RunWorkers(ctx context.Context, workers int, callback AircraftCallback) error {
	if workers < 1 {
		workers = 1
	}

	utils.Infof("🚀 启动 %d 个抓取worker", workers)

	// 监控goroutine: 所有worker空闲且队列为空时关闭队列
	watchCtx, watchCancel := context.WithCancel(ctx)
	defer watchCancel()

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				activeCount := atomic.LoadInt32(&fs.activeWorkers)
				pendingCount := fs.queue.PendingCount()

				if activeCount == 0 && pendingCount == 0 {
					utils.Debugf("检测到所有worker空闲且队列为空,关闭队列")
					fs.queue.Close()
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup

	// 初始化活跃worker数量
	atomic.StoreInt32(&fs.activeWorkers, int32(workers))

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			fs.worker(ctx, workerID, callback)
		}(i)
	}

	wg.Wait()
	return nil
}

// worker Worker goroutine,从队列拉取飞机任务并抓取
func (fs *FleetScraper) worker(ctx context.Context, workerID int, callback AircraftCallback) {
	// 每个worker独占一个浏览器实例 (http模式无浏览器池)
	var browser *rod.Browser
	if fs.pool != nil {
		var err error
		browser, err = fs.pool.Acquire(ctx)
		if err != nil {
			atomic.AddInt32(&fs.activeWorkers, -1)
			utils.Errorf("Worker %d 获取浏览器实例失败: %v", workerID, err)
			return
		}
		// browser可能被崩溃替换,延迟到归还时再取值
		defer func() { fs.pool.Release(browser) }()
	}

	for {
		// Worker进入空闲状态(等待任务)
		atomic.AddInt32(&fs.activeWorkers, -1)

		job, ok := fs.queue.Pop(ctx)
		if !ok {
			// 队列已关闭或context取消
			return
		}

		// Worker进入工作状态
		atomic.AddInt32(&fs.activeWorkers, 1)

		err := fs.scrapeAircraftWithRetry(ctx, workerID, &browser, job)
		fs.queue.MarkProcessed(job.Aircraft.Registration)

		if err != nil {
			utils.Warnf("Worker %d 抓取失败 [%s]: %v", workerID, job.Aircraft.Registration, err)
			fs.recordFailure(job, err)
		}

		if callback != nil {
			callback(job.Airline, job.Aircraft, err)
		}
	}
}

// scrapeAircraftWithRetry 抓取单架飞机,浏览器崩溃后替换实例并重试
// 最多重试maxPageRetries次,仍失败时返回ErrMaxRetriesReached
func (fs *FleetScraper) scrapeAircraftWithRetry(ctx context.Context, workerID int, browser **rod.Browser, job models.FleetJob) error {
	// http模式没有浏览器,不存在崩溃重试
	if *browser == nil {
		return fs.scrapeAircraft(ctx, nil, job)
	}

	var lastErr error

	for attempt := 0; attempt <= maxPageRetries; attempt++ {
		err := fs.scrapeAircraft(ctx, *browser, job)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.Is(err, ErrBrowserCrashed) {
			return err
		}

		utils.Warnf("Worker %d 浏览器崩溃,准备替换实例(重试%d/%d)", workerID, attempt+1, maxPageRetries)

		replacement, rerr := fs.pool.ReplaceBrowser(*browser)
		if rerr != nil {
			return fmt.Errorf("替换崩溃浏览器失败: %w", rerr)
		}
		*browser = replacement

		if attempt == maxPageRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(browserRestartDelay):
		}
	}

	return fmt.Errorf("抓取飞机失败 [%s]: %w (%v)", job.Aircraft.Registration, ErrMaxRetriesReached, lastErr)
}

// scrapeAircraft 抓取单架飞机的详情页并解析
// 浏览器操作panic时转换为ErrBrowserCrashed
func (fs *FleetScraper) scrapeAircraft(ctx context.Context, browser *rod.Browser, job models.FleetJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("捕获panic: 注册号=%s, 错误=%v", job.Aircraft.Registration, r)
			err = fmt.Errorf("浏览器操作panic: %v: %w", r, ErrBrowserCrashed)
		}
	}()

	utils.Debugf("抓取飞机: %s", job.Aircraft.Registration)
	fs.countVisitedPage()

	// 详情页优先用浏览器渲染,http模式降级为直连获取
	var html string
	if browser != nil {
		html, err = fs.RetrievePage(ctx, browser, fs.baseURL+job.Aircraft.Link)
	} else {
		html, err = fs.fetcher.Fetch(ctx, fs.baseURL+job.Aircraft.Link)
	}
	if err != nil {
		return err
	}

	doc, err := ParseDocument(html)
	if err != nil {
		return err
	}

	if err := fs.parser.ParseAircraftPage(doc, job.Aircraft); err != nil {
		return err
	}

	fs.mu.Lock()
	fs.stats.Aircraft++
	fs.stats.Flights += len(job.Aircraft.Flights)
	fs.mu.Unlock()

	return nil
}

// recordFailure 记录失败的飞机
func (fs *FleetScraper) recordFailure(job models.FleetJob, err error) {
	errorType := "scrape_error"
	switch {
	case errors.Is(err, ErrMaxRetriesReached):
		errorType = "max_retries"
	case errors.Is(err, ErrBotBlocked):
		errorType = "bot_blocked"
	case errors.Is(err, ErrBrowserCrashed):
		errorType = "browser_crashed"
	}

	airlineName := ""
	if job.Airline != nil {
		airlineName = job.Airline.Name
	}

	fs.failedMu.Lock()
	fs.failedAircraft = append(fs.failedAircraft, models.FailedAircraftInfo{
		Registration: job.Aircraft.Registration,
		Airline:      airlineName,
		Link:         job.Aircraft.Link,
		ErrorType:    errorType,
		ErrorMsg:     err.Error(),
		Retries:      maxPageRetries,
	})
	fs.failedMu.Unlock()

	fs.mu.Lock()
	fs.stats.FailedAircraft++
	fs.mu.Unlock()
}

// countVisitedPage 累加访问页面计数
func (fs *FleetScraper) countVisitedPage() {
	fs.mu.Lock()
	fs.stats.VisitedPages++
	fs.mu.Unlock()
}

// countBotBlock 累加反爬拦截计数
func (fs *FleetScraper) countBotBlock() {
	fs.mu.Lock()
	fs.stats.BotBlocks++
	fs.mu.Unlock()
}
