package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartIdleLock schedules a job that locks the vault once it has been idle
// for longer than its lock timeout. Calling it again is a no-op.
func (a *App) StartIdleLock() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	schedule := fmt.Sprintf("@every %s", a.pollInterval)
	if _, err := c.AddFunc(schedule, a.checkIdle); err != nil {
		return fmt.Errorf("scheduling idle lock: %w", err)
	}
	c.Start()
	a.cron = c

	a.log.Debugf("Idle lock check scheduled %s", schedule)
	return nil
}

// StopIdleLock stops the idle lock job and waits for a running check.
func (a *App) StopIdleLock() {
	a.mu.Lock()
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

func (a *App) checkIdle() {
	a.lockIfIdle(context.Background(), time.Now())
}

// lockIfIdle reports whether the vault was locked.
func (a *App) lockIfIdle(ctx context.Context, now time.Time) bool {
	locked, err := a.vault.LockIfIdle(ctx, now)
	if err != nil {
		a.log.Warnf("Idle lock check failed: %v", err)
		return false
	}
	if locked {
		a.log.Infof("Vault locked after inactivity")
	}
	return locked
}
