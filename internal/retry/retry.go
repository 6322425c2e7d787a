package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy 重试策略：线性退避，第 n 次失败后等待 n × Interval
type Policy struct {
	MaxAttempts int
	Interval    time.Duration

	// sleep 可注入，测试用
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPolicy(maxAttempts int, interval time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Interval: interval}
}

// Do 依次执行 op，全部失败时返回最后一次错误
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt < p.MaxAttempts {
			if err := sleep(ctx, time.Duration(attempt)*p.Interval); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
