package observability

import (
	"context"
	"sync"
	"time"
)

// HealthStatus 健康状态
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck 健康检查接口
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthInfo 健康信息
type HealthInfo struct {
	Status    HealthStatus           `json:"status"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单项检查结果
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Error   string       `json:"error,omitempty"`
	Latency string       `json:"latency"`
}

// HealthChecker 并发执行已注册的检查
type HealthChecker struct {
	mu        sync.RWMutex
	checks    []HealthCheck
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHealthChecker 创建健康检查器, 每项检查默认 5 秒超时
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// RegisterCheck 注册健康检查
func (h *HealthChecker) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// Check 执行所有健康检查。
// 全部失败为 unhealthy, 部分失败为 degraded。
func (h *HealthChecker) Check(ctx context.Context) *HealthInfo {
	h.mu.RLock()
	checks := append([]HealthCheck(nil), h.checks...)
	h.mu.RUnlock()

	info := &HealthInfo{
		Status:    HealthStatusHealthy,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, check := range checks {
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()

			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			start := time.Now()
			err := c.Check(cctx)
			result := CheckResult{Status: HealthStatusHealthy, Latency: time.Since(start).String()}
			if err != nil {
				result.Status = HealthStatusUnhealthy
				result.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			info.Checks[c.Name()] = result
			if err != nil {
				failed++
			}
		}(check)
	}
	wg.Wait()

	switch {
	case failed == 0:
	case failed == len(checks):
		info.Status = HealthStatusUnhealthy
	default:
		info.Status = HealthStatusDegraded
	}
	return info
}

// FuncCheck 用函数实现的健康检查
type FuncCheck struct {
	name string
	fn   func(context.Context) error
}

// NewFuncCheck 创建健康检查
func NewFuncCheck(name string, fn func(context.Context) error) *FuncCheck {
	return &FuncCheck{name: name, fn: fn}
}

func (c *FuncCheck) Name() string { return c.name }

func (c *FuncCheck) Check(ctx context.Context) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx)
}
