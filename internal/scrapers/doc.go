// Package scrapers 提供航班数据的浏览器和HTTP直连抓取功能
//
// # 概述
//
// scrapers包实现了多浏览器实例并发抓取机制,支持HTTP直连(Colly)和
// 无头浏览器(go-rod)两种页面获取模式。核心特性包括:独立Chrome实例池、
// 实时资源监控、反爬验证等待、浏览器崩溃自动替换、按注册号去重的任务队列。
//
// # 核心组件
//
// ## FleetScraper
//
// 机队抓取器,驱动完整的三级抓取流程:
// 航司列表 -> 各航司机队 -> 单架飞机的航班历史。
//
//	scraper := NewFleetScraper(ctx, baseURL, config, pool, queue, parser, fetcher, headerProvider)
//	airlines, err := scraper.ScrapeAirlines(ctx)
//	err = scraper.ScrapeFleet(ctx, airlines[0])
//	err = scraper.RunWorkers(ctx, instances, callback)
//
// ## BrowserPool (浏览器实例池)
//
// 管理N个独立Chrome实例的生命周期。与标签页池不同,每个实例是
// 独立进程: 单个实例崩溃不影响其他实例正在进行的抓取。
// 核心策略:
//   - 启动时一次性创建N个实例(受资源监控器限制)
//   - 实例崩溃后销毁并启动新实例补位
//   - 内存压力下通过ScaleDown缩减空闲实例
//
// 使用示例:
//
//	pool, err := NewBrowserPool(ctx, BrowserPoolConfig{Instances: 4, Headless: true}, monitor)
//	if err != nil { /* 处理错误 */ }
//	defer pool.Close()
//
//	browser, err := pool.Acquire(ctx)
//	if err != nil { /* 处理错误 */ }
//	defer pool.Release(browser)
//
// ## ResourceMonitor (资源监控器)
//
// 实时监控系统可用内存和CPU负载,动态计算浏览器实例上限。
// 实例上限取内存允许值、CPU核心数和配置上限三者的最小值。
// 渐进式降级策略:
//   - 可用内存 < 500MB: 暂停创建新实例 (警告日志)
//   - 可用内存 < 300MB: 主动缩减至当前实例数的50% (警告日志)
//   - 可用内存 < 200MB: 紧急缩减至1个实例 (错误日志)
//
// 使用示例:
//
//	config := ResourceMonitorConfig{
//	    SafetyReserveMemory: 1024 * 1024 * 1024,  // 1GB
//	    SafetyThreshold:     500 * 1024 * 1024,   // 500MB
//	    CPULoadThreshold:    80,
//	    MaxInstancesLimit:   16,
//	    InstanceMemoryUsage: 512 * 1024 * 1024,   // 512MB per instance
//	}
//	monitor := NewResourceMonitor(config)
//	monitor.StartMonitoring(1 * time.Second)
//	defer monitor.StopMonitoring()
//
//	maxInstances := monitor.CalculateMaxInstances()
//
// ## FleetQueue (任务队列)
//
// 并发安全的飞机任务队列,按注册号去重,支持断点续传时预填充
// 已处理集合。基于channel实现的待处理队列和map实现的去重集合。
//
// 使用示例:
//
//	queue := NewFleetQueue()
//	defer queue.Close()
//
//	err := queue.Push(models.FleetJob{Airline: airline, Aircraft: aircraft})
//	job, ok := queue.Pop(ctx)
//	queue.MarkProcessed(job.Aircraft.Registration)
//
// ## PageParser (页面解析器)
//
// 基于goquery的只读DOM解析器,把三类页面解析成数据模型:
//   - 航司列表页: td.notranslate 中的链接
//   - 机队页: a.regLinks 中的注册号和链接
//   - 飞机详情页: label旁的机型信息 + tr.data-row 中的航班历史
//
// 所有worker共享同一个解析器实例和机场数据库。
//
// ## StaticFetcher (HTTP直连获取器)
//
// 基于Colly的无浏览器页面获取器,用于http/auto模式下不依赖
// JS渲染的列表页面。支持gzip/deflate/brotli响应解压,遇到
// 反爬保护时返回ErrBotBlocked供调用方回退到浏览器模式。
//
// # 反爬验证处理
//
// 页面包含"Checking your browser before accessing"时视为验证页:
//   - 浏览器模式: 每秒轮询一次页面HTML,等待验证自动通过(上限60秒)
//   - HTTP直连: 立即返回ErrBotBlocked,auto模式下回退到浏览器
//
// # 崩溃恢复
//
// 浏览器操作的panic被recover捕获并转换为ErrBrowserCrashed。
// worker检测到该错误后向池申请替换实例,等待2秒重试当前飞机,
// 最多重试3次,仍失败时记入失败列表并继续下一架飞机。
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - FleetQueue: channel + sync.RWMutex
//   - BrowserPool: channel + sync.Mutex
//   - ResourceMonitor: sync.RWMutex
//   - FleetScraper: sync.RWMutex + atomic
package scrapers
