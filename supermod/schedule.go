package supermod

import (
	"context"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// startSchedules launches the periodic jobs: the daily question, the
// hourly promo pass, the weekly open/close announcements, and the
// worksheet reconciliation. All jobs stop when ctx is canceled, and all
// but the reconciliation are skipped while the bot is paused.
func (su *Supermod) startSchedules(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(2)
	go func() {
		defer wg.Done()
		su.runMinuteJobs(ctx)
	}()
	go func() {
		defer wg.Done()
		su.runSyncSchedule(ctx)
	}()
}

// runMinuteJobs ticks once a minute and fires the wall-clock jobs whose
// minute has come. Each job fires at most once per minute even if ticks
// bunch up after a stall.
func (su *Supermod) runMinuteJobs(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	lastFired := map[string]time.Time{}
	fire := func(name string, job func(context.Context)) {
		minute := su.now().Truncate(time.Minute)
		if lastFired[name].Equal(minute) {
			return
		}
		lastFired[name] = minute
		job(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if su.Paused() {
			continue
		}
		now := su.now()
		if now.Hour() == DefaultQOTDHour && now.Minute() == 0 {
			fire("qotd", su.scheduledQOTD)
		}
		if now.Minute() == 0 {
			fire("promos", su.runPromos)
		}
		if now.Weekday() == submissionsOpenDay && now.Hour() == 0 && now.Minute() == 0 {
			fire("submissions_open", su.scheduledAnnouncement(su.announceSubmissionsOpen))
		}
		if now.Weekday() == submissionsClosedDay && now.Hour() == 0 && now.Minute() == 0 {
			fire("submissions_closed", su.scheduledAnnouncement(su.announceSubmissionsClosed))
		}
	}
}

// scheduledQOTD runs the question approval flow in the staff channel,
// with a generous window for a moderator to react.
func (su *Supermod) scheduledQOTD(ctx context.Context) {
	err := su.qotdInteract(
		ctx, su.config.Discord.Channels.Approval, 30*time.Minute,
	)
	if err != nil {
		su.logger.ErrorContext(ctx, "scheduled qotd failed", tint.Err(err))
	}
}

func (su *Supermod) scheduledAnnouncement(
	announce func(context.Context) error,
) func(context.Context) {
	return func(ctx context.Context) {
		if err := announce(ctx); err != nil {
			su.logger.ErrorContext(ctx, "announcement failed", tint.Err(err))
		}
	}
}

// runSyncSchedule rebuilds the masterlist worksheets on the configured
// interval.
func (su *Supermod) runSyncSchedule(ctx context.Context) {
	interval := su.config.Sheets.SyncInterval
	if interval <= 0 {
		interval = DefaultSheetSyncInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			su.runSheetSync(ctx)
		}
	}
}
