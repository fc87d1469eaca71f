package scrapers

import "errors"

var (
	// ErrBrowserCrashed 浏览器实例崩溃或连接断开
	ErrBrowserCrashed = errors.New("浏览器实例已崩溃")

	// ErrMaxRetriesReached 单个页面重试次数超过上限
	ErrMaxRetriesReached = errors.New("重试次数已达上限")

	// ErrBotBlocked 页面被反爬虫机制拦截
	ErrBotBlocked = errors.New("页面被反爬虫验证拦截")

	// ErrChromeNotFound 系统中找不到Chrome/Chromium可执行文件
	ErrChromeNotFound = errors.New("未找到Chrome/Chromium浏览器")

	// ErrNoDisplay 非headless模式下缺少图形环境
	ErrNoDisplay = errors.New("未检测到图形显示环境(DISPLAY未设置)")
)
