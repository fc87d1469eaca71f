package scrapers

import (
	"context"
	"fmt"
	"sync"

	"github.com/SkyAshes/fleetradar/internal/models"
)

// FleetQueue 机队任务队列管理器
// 职责: 管理待抓取的飞机任务,按注册号去重,支持并发安全的Push/Pop操作
type FleetQueue struct {
	// 待处理任务队列
	pendingJobs chan models.FleetJob

	// 已入队的注册号集合(去重)
	enqueued map[string]bool

	// 已处理完成的注册号集合(断点续传时预填充)
	processed map[string]bool

	// 保护enqueued/processed的读写锁
	mu sync.RWMutex

	// 队列是否已关闭
	closed bool
}

// NewFleetQueue 创建机队任务队列实例
func NewFleetQueue() *FleetQueue {
	return &FleetQueue{
		pendingJobs: make(chan models.FleetJob, 10000), // buffered channel,容量10000
		enqueued:    make(map[string]bool),
		processed:   make(map[string]bool),
		closed:      false,
	}
}

// Push 添加飞机任务到待抓队列
// 检查任务有效性、重复入队、已处理标记
func (q *FleetQueue) Push(job models.FleetJob) error {
	// 检查队列是否已关闭
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("队列已关闭")
	}
	q.mu.RUnlock()

	// 检查任务有效性
	if job.Aircraft == nil || job.Aircraft.Registration == "" {
		return fmt.Errorf("任务缺少飞机注册号")
	}
	if job.Aircraft.Link == "" {
		return fmt.Errorf("任务缺少飞机页面链接: %s", job.Aircraft.Registration)
	}

	reg := job.Aircraft.Registration

	// 检查是否已入队或已处理
	q.mu.Lock()
	if q.enqueued[reg] {
		q.mu.Unlock()
		return fmt.Errorf("注册号已在队列中: %s", reg)
	}
	if q.processed[reg] {
		q.mu.Unlock()
		return fmt.Errorf("注册号已处理完成: %s", reg)
	}
	q.enqueued[reg] = true
	q.mu.Unlock()

	// 添加到队列
	q.pendingJobs <- job

	return nil
}

// Pop 从队列中取出下一个待抓任务
// 从channel读取,支持context取消,阻塞等待
func (q *FleetQueue) Pop(ctx context.Context) (models.FleetJob, bool) {
	select {
	case <-ctx.Done():
		// Context取消
		return models.FleetJob{}, false
	case job, ok := <-q.pendingJobs:
		if !ok {
			// Channel已关闭
			return models.FleetJob{}, false
		}
		return job, true
	}
}

// MarkProcessed 标记注册号为已处理
func (q *FleetQueue) MarkProcessed(registration string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processed[registration] = true
}

// IsProcessed 检查注册号是否已处理
func (q *FleetQueue) IsProcessed(registration string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.processed[registration]
}

// PreloadProcessed 预填充已处理集合(断点续传)
func (q *FleetQueue) PreloadProcessed(registrations []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, reg := range registrations {
		q.processed[reg] = true
	}
}

// PendingCount 返回当前待处理任务数量
// 返回len(channel),O(1)时间复杂度
func (q *FleetQueue) PendingCount() int {
	return len(q.pendingJobs)
}

// ProcessedCount 返回已处理任务数量
func (q *FleetQueue) ProcessedCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.processed)
}

// Reset 清空队列,重置入队状态
// 为下一个航司准备全新状态; processed集合保留,跨航司仍然去重
func (q *FleetQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	// 清空pending队列 (drain channel)
	for len(q.pendingJobs) > 0 {
		<-q.pendingJobs
	}

	// 清空入队集合
	q.enqueued = make(map[string]bool)
}

// Close 关闭队列,释放资源
// 关闭channel,后续Push调用返回错误
func (q *FleetQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.pendingJobs)
		q.closed = true
	}
}
