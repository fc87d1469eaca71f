package scrapers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"

	"github.com/SkyAshes/fleetradar/internal/models"
	"github.com/SkyAshes/fleetradar/internal/utils"
)

// StaticFetcher HTTP直连页面获取器(使用Colly)
// 职责: 不启动浏览器直接抓取静态页面,用于http/auto模式下的
// 航司列表和机队列表页面(这两类页面不依赖JS渲染)
type StaticFetcher struct {
	collector *colly.Collector

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewStaticFetcher 创建HTTP直连获取器
func NewStaticFetcher(config models.ScrapeConfig, headerProvider models.HeaderProvider) *StaticFetcher {
	// 自定义HTTP客户端,跳过TLS证书验证(与浏览器的ignore-certificate-errors保持一致)
	httpTimeout := 30 * time.Second
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		},
		Timeout: httpTimeout,
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	c.SetClient(httpClient)
	c.WithTransport(httpClient.Transport)
	c.SetRequestTimeout(httpTimeout)

	utils.Debugf("HTTP直连获取器: 超时=%d秒, TLS证书验证已禁用", int(httpTimeout.Seconds()))

	return &StaticFetcher{
		collector:      c,
		headerProvider: headerProvider,
	}
}

// Fetch 获取单个页面的HTML
// 页面被反爬保护拦截时返回ErrBotBlocked,调用方可回退到浏览器模式
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		html     string
		fetchErr error
	)

	// Colly的回调是collector级别的,克隆collector为本次请求注册独立回调
	// (Clone共享backend,复用同一个HTTP客户端和TLS配置)
	c := sf.collector.Clone()

	c.OnRequest(func(r *colly.Request) {
		// 接受压缩响应,在OnResponse中手动解压
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")

		if sf.headerProvider != nil {
			headers, err := sf.headerProvider.GetHeaders()
			if err != nil {
				utils.Warnf("获取HTTP头部失败: %v", err)
				return
			}
			for name, values := range headers {
				if len(values) > 0 {
					r.Headers.Set(name, values[0])
				}
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		body, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			fetchErr = err
			return
		}

		html = string(body)
		if IsBotProtected(html) {
			fetchErr = fmt.Errorf("HTTP直连被拦截 [%s]: %w", pageURL, ErrBotBlocked)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("HTTP请求失败 [%s]: %w", pageURL, err)
	})

	// 同步collector: Visit阻塞到回调执行完毕
	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("发起请求失败 [%s]: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fetchErr
	}
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("响应内容为空 [%s]", pageURL)
	}
	return html, nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		// 没有压缩,直接返回原始内容
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
