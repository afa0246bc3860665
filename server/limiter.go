package server

import (
	"context"
	"errors"
	"time"
)

// ErrQueueTimeout 排队等待超时
var ErrQueueTimeout = errors.New("processing queue timeout, server busy")

// Limiter 限制同时进行的分割任务数
type Limiter struct {
	semaphore    chan struct{}
	queueTimeout time.Duration
}

// NewLimiter maxConcurrent<=0 时按 1 处理
func NewLimiter(maxConcurrent int, queueTimeout time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Limiter{
		semaphore:    make(chan struct{}, maxConcurrent),
		queueTimeout: queueTimeout,
	}
}

// Acquire 获取一个处理槽位，返回的 release 必须调用
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if l.queueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.queueTimeout)
		defer cancel()
	}

	select {
	case l.semaphore <- struct{}{}:
		return func() { <-l.semaphore }, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrQueueTimeout
		}
		return nil, ctx.Err()
	}
}
