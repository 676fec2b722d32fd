package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 速率限制器接口
type Limiter interface {
	// Allow 检查 key 是否还有可用令牌, 有则消费一个
	Allow(key string) bool

	// Reset 重置指定 key 的限制
	Reset(key string)

	// GetInfo 获取限制信息
	GetInfo(key string) *LimitInfo
}

// LimitInfo 限制信息
type LimitInfo struct {
	Limit      int           // 桶容量
	Remaining  int           // 当前可用令牌
	RetryAfter time.Duration // 下一个令牌可用前需要等待的时间
}

// TokenBucketLimiter 按 key 分桶的令牌桶限流器, 每个桶是一个 rate.Limiter
type TokenBucketLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucketLimiter 创建令牌桶限流器。
// perSecond 为每秒补充的令牌数, burst 为桶容量; 空闲超过 idleTTL 的桶会被回收。
func NewTokenBucketLimiter(perSecond float64, burst int, idleTTL time.Duration) *TokenBucketLimiter {
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	l := &TokenBucketLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idleTTL,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *TokenBucketLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Allow 检查是否允许请求
func (l *TokenBucketLimiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Reset 重置指定 key 的限制
func (l *TokenBucketLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// GetInfo 获取限制信息
func (l *TokenBucketLimiter) GetInfo(key string) *LimitInfo {
	lim := l.get(key)
	now := time.Now()

	tokens := lim.TokensAt(now)
	info := &LimitInfo{Limit: l.burst}
	if tokens >= 1 {
		info.Remaining = int(tokens)
		return info
	}
	if l.limit > 0 {
		info.RetryAfter = time.Duration((1 - tokens) / float64(l.limit) * float64(time.Second))
	}
	return info
}

// Close 停止后台清理
func (l *TokenBucketLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *TokenBucketLimiter) cleanup() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastSeen) > l.idleTTL {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
