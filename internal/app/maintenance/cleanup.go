// Package maintenance runs the background schedule: audit retention
// enforcement and the daily activity digest.
package maintenance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opencallhq/opencall/internal/services"
	"github.com/opencallhq/opencall/pkg/logger"
)

const (
	defaultAuditSpec   = "@daily"
	defaultSummarySpec = "0 8 * * *"
)

// Cleaner coordinates the background jobs. Retention length and the digest
// send time are read from the settings bags when each job fires, so saved
// changes apply without a restart; Reschedule rebuilds the cron entries for
// changes to the send time itself.
type Cleaner struct {
	db       *gorm.DB
	settings *services.SettingsService
	audit    *services.AuditService
	email    *services.EmailService
	now      func() time.Time
	log      *zap.Logger

	auditSchedule string

	mu      sync.Mutex
	cron    *cron.Cron
	entries []string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithNow overrides the clock used for scheduling decisions.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner. A nil audit or email service disables the
// corresponding job.
func NewCleaner(db *gorm.DB, settings *services.SettingsService, audit *services.AuditService, email *services.EmailService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:            db,
		settings:      settings,
		audit:         audit,
		email:         email,
		now:           time.Now,
		auditSchedule: defaultAuditSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	return cleaner
}

// Start builds the schedule from the stored settings and launches it.
func (c *Cleaner) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Cleaner) startLocked(ctx context.Context) error {
	runner := cron.New(cron.WithLogger(cron.DiscardLogger))
	var entries []string

	if c.audit != nil && c.settings != nil {
		if _, err := runner.AddFunc(c.auditSchedule, c.runAuditCleanup); err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("audit retention (%s)", c.auditSchedule))
	}

	if c.email != nil && c.settings != nil {
		spec := defaultSummarySpec
		if bag, err := c.settings.Templates(ctx); err == nil {
			spec = summarySpec(bag.DailySummary.SendAt)
		}
		if _, err := runner.AddFunc(spec, c.runDailySummary); err != nil {
			return err
		}
		entries = append(entries, fmt.Sprintf("daily summary (%s)", spec))
	}

	runner.Start()
	c.cron = runner
	c.entries = entries
	return nil
}

// Reschedule tears the schedule down and rebuilds it from the current
// settings, returning a description of the active entries.
func (c *Cleaner) Reschedule(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		<-c.cron.Stop().Done()
		c.cron = nil
	}
	if err := c.startLocked(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), c.entries...), nil
}

// Entries describes the registered jobs.
func (c *Cleaner) Entries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.entries...)
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

func (c *Cleaner) runAuditCleanup() {
	ctx := context.Background()

	general, err := c.settings.General(ctx)
	if err != nil {
		c.log.Warn("audit cleanup: load settings failed", zap.Error(err))
		return
	}
	if general.AuditRetentionDays <= 0 {
		return
	}

	removed, err := c.audit.CleanupOlderThan(ctx, general.AuditRetentionDays)
	if err != nil {
		c.log.Warn("audit cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		c.log.Info("audit cleanup", zap.Int64("removed", removed))
	}
}

func (c *Cleaner) runDailySummary() {
	stats, err := c.email.SendDailySummary(context.Background(), false)
	if err != nil {
		c.log.Warn("daily summary failed", zap.Error(err))
		return
	}
	if stats != nil {
		c.log.Info("daily summary sent",
			zap.Int64("new_submissions", stats.NewSubmissions),
			zap.Int64("emails_sent", stats.EmailsSent),
		)
	}
}

// RunOnce executes all configured jobs sequentially. Used in tests and during
// graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.settings != nil {
		general, err := c.settings.General(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if general.AuditRetentionDays > 0 {
			if _, err := c.audit.CleanupOlderThan(ctx, general.AuditRetentionDays); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}

	if c.email != nil {
		if _, err := c.email.SendDailySummary(ctx, false); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// summarySpec converts an HH:MM send time into a cron specification,
// defaulting to 08:00 when the value is unusable.
func summarySpec(sendAt string) string {
	parts := strings.SplitN(strings.TrimSpace(sendAt), ":", 2)
	if len(parts) != 2 {
		return defaultSummarySpec
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return defaultSummarySpec
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return defaultSummarySpec
	}
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
