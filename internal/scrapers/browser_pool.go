package scrapers

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/rs/zerolog/log"
)

// BrowserHealthStatus 浏览器实例健康状态
// 跟踪每个实例的崩溃次数,用于替换和销毁决策
type BrowserHealthStatus struct {
	CrashCount      int       // 崩溃次数
	LastSuccessTime time.Time // 最后一次成功使用时间
}

// BrowserPoolConfig 浏览器池配置
type BrowserPoolConfig struct {
	Instances int  // 浏览器实例数量
	Headless  bool // 是否以headless模式运行
}

// BrowserPool 浏览器实例池管理器
// 职责: 管理N个独立Chrome实例的生命周期,协调并发访问,崩溃后替换实例
//
// 与标签页池不同,每个实例是独立的Chrome进程: 单个实例崩溃不会影响
// 其他实例正在进行的抓取。
type BrowserPool struct {
	// 配置
	config BrowserPoolConfig

	// 所有活跃的浏览器实例
	browsers []*rod.Browser

	// 可用实例channel
	availableBrowsers chan *rod.Browser

	// 资源监控器
	resourceMonitor *ResourceMonitor

	// 保护browsers切片的锁
	mu sync.Mutex

	// 控制生命周期的context
	ctx context.Context

	// 是否已关闭
	closed bool

	// 实例健康状态跟踪
	browserHealth map[*rod.Browser]*BrowserHealthStatus
	healthMu      sync.RWMutex // 保护browserHealth的锁

	// 崩溃后替换实例的总次数
	restarts int
}

// FindChrome 查找系统中的Chrome/Chromium可执行文件
// 返回可执行文件路径,找不到时返回ErrChromeNotFound
func FindChrome() (string, error) {
	path, exists := launcher.LookPath()
	if !exists {
		return "", ErrChromeNotFound
	}
	return path, nil
}

// CheckDisplay 检查图形显示环境是否可用
// 仅在Linux非headless模式下有意义; headless模式始终返回nil
func CheckDisplay(headless bool) error {
	if headless {
		return nil
	}
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" {
		return ErrNoDisplay
	}
	return nil
}

// NewBrowserPool 创建浏览器池并启动全部实例
// 实际启动的实例数受资源监控器限制,可能小于config.Instances
func NewBrowserPool(ctx context.Context, config BrowserPoolConfig, resourceMonitor *ResourceMonitor) (*BrowserPool, error) {
	// 启动前检查Chrome和图形环境
	chromePath, err := FindChrome()
	if err != nil {
		return nil, fmt.Errorf("无法启动浏览器池: %w", err)
	}
	if err := CheckDisplay(config.Headless); err != nil {
		return nil, fmt.Errorf("无法启动浏览器池: %w", err)
	}
	log.Debug().Msgf("使用浏览器: %s", chromePath)

	// 基于资源限制修正实例数
	instances := config.Instances
	if maxInstances := resourceMonitor.CalculateMaxInstances(); instances > maxInstances {
		log.Warn().Msgf("资源限制: 浏览器实例数从 %d 降至 %d", instances, maxInstances)
		instances = maxInstances
	}
	if instances < 1 {
		instances = 1
	}

	bp := &BrowserPool{
		config:            config,
		browsers:          make([]*rod.Browser, 0, instances),
		availableBrowsers: make(chan *rod.Browser, 64), // buffered channel
		resourceMonitor:   resourceMonitor,
		ctx:               ctx,
		closed:            false,
		browserHealth:     make(map[*rod.Browser]*BrowserHealthStatus),
	}

	// 启动全部实例
	for i := 0; i < instances; i++ {
		browser, err := bp.launchBrowser()
		if err != nil {
			// 启动失败时回收已启动的实例
			bp.Close()
			return nil, fmt.Errorf("启动第 %d 个浏览器实例失败: %w", i+1, err)
		}

		bp.mu.Lock()
		bp.browsers = append(bp.browsers, browser)
		bp.mu.Unlock()

		bp.healthMu.Lock()
		bp.browserHealth[browser] = &BrowserHealthStatus{
			CrashCount:      0,
			LastSuccessTime: time.Now(),
		}
		bp.healthMu.Unlock()

		bp.availableBrowsers <- browser
	}

	log.Info().Msgf("🚀 浏览器池已启动: %d 个实例 (headless=%v)", instances, config.Headless)
	return bp, nil
}

// launchBrowser 启动单个浏览器实例并建立连接
func (bp *BrowserPool) launchBrowser() (*rod.Browser, error) {
	l := launcher.New().Headless(bp.config.Headless)

	// 允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}

	log.Debug().Msgf("浏览器实例已启动: %s", controlURL)
	return browser, nil
}

// Acquire 获取一个可用的浏览器实例
// 所有实例都被占用时阻塞等待,直到有实例归还或context取消
func (bp *BrowserPool) Acquire(ctx context.Context) (*rod.Browser, error) {
	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		return nil, fmt.Errorf("浏览器池已关闭")
	}
	bp.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case browser, ok := <-bp.availableBrowsers:
		if !ok {
			return nil, fmt.Errorf("浏览器池已关闭")
		}
		return browser, nil
	}
}

// Release 归还浏览器实例到池中
func (bp *BrowserPool) Release(browser *rod.Browser) {
	if browser == nil {
		return
	}

	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		return
	}
	bp.mu.Unlock()

	// 已销毁的实例不在健康表中,不再归还
	// (崩溃替换失败时worker归还的可能是旧指针)
	bp.healthMu.Lock()
	health, tracked := bp.browserHealth[browser]
	if tracked {
		health.LastSuccessTime = time.Now()
	}
	bp.healthMu.Unlock()

	if !tracked {
		return
	}

	select {
	case bp.availableBrowsers <- browser:
		// 成功归还
	default:
		// channel已满,销毁该实例
		bp.destroyBrowser(browser)
	}
}

// ReplaceBrowser 销毁崩溃的浏览器实例并启动新实例补位
// 返回新实例,替换失败时返回error(此时池容量减1)
func (bp *BrowserPool) ReplaceBrowser(crashed *rod.Browser) (*rod.Browser, error) {
	// 记录崩溃次数
	bp.healthMu.Lock()
	if health, exists := bp.browserHealth[crashed]; exists {
		health.CrashCount++
	}
	bp.healthMu.Unlock()

	bp.destroyBrowser(crashed)

	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		return nil, fmt.Errorf("浏览器池已关闭")
	}
	bp.mu.Unlock()

	// 检查资源是否允许补位
	canCreate, reason := bp.resourceMonitor.CheckResourceAvailability()
	if !canCreate {
		log.Warn().Msgf("资源不足,不补充新浏览器实例: %s", reason)
		return nil, fmt.Errorf("资源不足,无法替换崩溃实例: %s", reason)
	}

	browser, err := bp.launchBrowser()
	if err != nil {
		log.Error().Err(err).Msg("❌ 替换崩溃浏览器实例失败")
		return nil, fmt.Errorf("替换崩溃浏览器实例失败: %w", err)
	}

	bp.mu.Lock()
	bp.browsers = append(bp.browsers, browser)
	bp.restarts++
	restarts := bp.restarts
	bp.mu.Unlock()

	bp.healthMu.Lock()
	bp.browserHealth[browser] = &BrowserHealthStatus{
		CrashCount:      0,
		LastSuccessTime: time.Now(),
	}
	bp.healthMu.Unlock()

	log.Info().Msgf("✅ 已替换崩溃的浏览器实例 (累计替换 %d 次)", restarts)
	return browser, nil
}

// destroyBrowser 销毁浏览器实例
func (bp *BrowserPool) destroyBrowser(browser *rod.Browser) {
	bp.mu.Lock()
	for i, b := range bp.browsers {
		if b == browser {
			bp.browsers = append(bp.browsers[:i], bp.browsers[i+1:]...)
			break
		}
	}
	currentSize := len(bp.browsers)
	bp.mu.Unlock()

	bp.healthMu.Lock()
	delete(bp.browserHealth, browser)
	bp.healthMu.Unlock()

	// 崩溃的实例Close可能报错,仅记录日志
	if err := browser.Close(); err != nil {
		log.Warn().Err(err).Msg("关闭浏览器实例失败")
	}

	log.Debug().Msgf("销毁浏览器实例,当前实例数: %d", currentSize)
}

// ScaleDown 缩减浏览器池到目标数量
// 仅销毁空闲实例,正在工作的实例在归还后不再补位
func (bp *BrowserPool) ScaleDown(targetCount int) {
	if targetCount < 1 {
		targetCount = 1
	}

	for {
		bp.mu.Lock()
		currentSize := len(bp.browsers)
		bp.mu.Unlock()

		if currentSize <= targetCount {
			return
		}

		// 只取空闲实例,取不到就放弃本轮缩减
		select {
		case browser := <-bp.availableBrowsers:
			bp.destroyBrowser(browser)
		default:
			return
		}
	}
}

// CurrentSize 返回当前浏览器池的大小
func (bp *BrowserPool) CurrentSize() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.browsers)
}

// Restarts 返回崩溃替换的总次数
func (bp *BrowserPool) Restarts() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.restarts
}

// Close 关闭浏览器池,释放所有实例
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}

	for _, browser := range bp.browsers {
		if err := browser.Close(); err != nil {
			log.Warn().Err(err).Msg("关闭浏览器实例失败")
		}
	}

	bp.browsers = nil
	close(bp.availableBrowsers)
	bp.closed = true

	log.Info().Msg("浏览器池已关闭")
	return nil
}
