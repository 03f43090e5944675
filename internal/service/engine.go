package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/repository"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
	"github.com/segyhp/circulation-notices/pkg/utils"
)

const (
	lockKeyPrefix      = "circulation-notices:lock:"
	defaultLockTTL     = 10 * time.Minute
	defaultPageLimit   = 100
	defaultConcurrency = 8
)

// EngineConfig selects which due notices one engine processes and how wide it fans out
type EngineConfig struct {
	// RealTime selects notices configured for real-time sending. A real-time
	// engine processes everything due before now; the other one processes
	// everything due before the start of the current day in Location.
	RealTime bool

	// Events optionally limits processing to some triggering events
	Events []domain.TriggeringEvent

	PageLimit         int
	GroupConcurrency  int
	NoticeConcurrency int
	Location          *time.Location
	LockTTL           time.Duration
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.PageLimit <= 0 {
		c.PageLimit = defaultPageLimit
	}
	if c.GroupConcurrency <= 0 {
		c.GroupConcurrency = defaultConcurrency
	}
	if c.NoticeConcurrency <= 0 {
		c.NoticeConcurrency = defaultConcurrency
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	return c
}

func (c EngineConfig) mode() string {
	if c.RealTime {
		return "real-time"
	}
	return "not-real-time"
}

// Engine processes one page of due scheduled notices per call
type Engine struct {
	notices    repository.NoticeRepository
	builder    *ContextBuilder
	dispatcher *Dispatcher
	lock       repository.BatchLock
	errorLog   NoticeErrorLogger
	config     EngineConfig
	log        logrus.FieldLogger
}

// NewEngine creates an engine. lock may be nil when runs never overlap.
func NewEngine(
	notices repository.NoticeRepository,
	builder *ContextBuilder,
	dispatcher *Dispatcher,
	lock repository.BatchLock,
	errorLog NoticeErrorLogger,
	config EngineConfig,
	log logrus.FieldLogger,
) *Engine {
	config = config.withDefaults()
	return &Engine{
		notices:    notices,
		builder:    builder,
		dispatcher: dispatcher,
		lock:       lock,
		errorLog:   errorLog,
		config:     config,
		log:        log.WithField("mode", config.mode()),
	}
}

// WithEvents returns an engine limited to the given triggering events
func (e *Engine) WithEvents(events []domain.TriggeringEvent) *Engine {
	clone := *e
	clone.config.Events = events
	return &clone
}

// WithPageLimit returns an engine fetching at most limit notices per call
func (e *Engine) WithPageLimit(limit int) *Engine {
	clone := *e
	if limit > 0 {
		clone.config.PageLimit = limit
	}
	return &clone
}

// ProcessDueNotices runs one cycle at now. Per-notice and per-group failures
// are counted in the summary; only failing to load the page is returned.
func (e *Engine) ProcessDueNotices(ctx context.Context, now time.Time) (domain.Summary, error) {
	if e.lock != nil {
		key := lockKeyPrefix + e.config.mode()
		acquired, err := e.lock.Acquire(ctx, key, e.config.LockTTL)
		if err != nil {
			return domain.Summary{}, err
		}
		if !acquired {
			e.log.Info("another run is in progress, skipping")
			return domain.Summary{}, nil
		}
		defer func() {
			if err := e.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				e.log.WithError(err).Warn("failed to release batch lock")
			}
		}()
	}

	page, err := e.notices.FindDue(ctx, e.dueQuery(now))
	if err != nil {
		e.log.WithError(err).Error("failed to fetch due notices")
		return domain.Summary{}, err
	}

	groups := GroupNotices(page.Notices)
	var deferred []NoticeGroup
	if !e.config.RealTime {
		groups, deferred = DropTrailingGroup(groups, page)
	}

	results := make([]domain.Summary, len(groups))

	var g errgroup.Group
	g.SetLimit(e.config.GroupConcurrency)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			results[i] = e.processGroupSafely(ctx, group, now)
			return nil
		})
	}
	_ = g.Wait()

	summary := domain.Summary{
		Fetched:   len(page.Notices),
		Untouched: countNotices(deferred),
	}
	for _, r := range results {
		summary = summary.Add(r)
	}

	e.log.WithFields(logrus.Fields{
		"fetched":    summary.Fetched,
		"groups":     summary.Groups,
		"sent":       summary.Sent,
		"skipped":    summary.Skipped,
		"updated":    summary.Updated,
		"deleted":    summary.Deleted,
		"cleaned_up": summary.CleanedUp,
		"failed":     summary.Failed,
	}).Info("processed due notices")

	return summary, nil
}

func (e *Engine) dueQuery(now time.Time) domain.DueNoticeQuery {
	realTime := e.config.RealTime
	query := domain.DueNoticeQuery{
		Before:   now,
		RealTime: &realTime,
		Events:   e.config.Events,
		Limit:    e.config.PageLimit,
	}
	if !realTime {
		query.Before = utils.StartOfDay(now, e.config.Location)
		query.OrderByGroup = true
	}
	return query
}

// processGroupSafely contains a panic to its group, whose notices stay due
func (e *Engine) processGroupSafely(ctx context.Context, group NoticeGroup, now time.Time) (summary domain.Summary) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithFields(logrus.Fields{
				"recipient_id":     group.Definition.RecipientUserID,
				"triggering_event": group.Definition.TriggeringEvent,
				"panic":            fmt.Sprint(r),
			}).Error("group processing aborted")
			summary = domain.Summary{Groups: 1, Failed: len(group.Notices)}
		}
	}()

	return e.processGroup(ctx, group, now)
}

func (e *Engine) processGroup(ctx context.Context, group NoticeGroup, now time.Time) domain.Summary {
	summary := domain.Summary{Groups: 1}

	survivors, buildSummary := e.buildGroup(ctx, group, now)
	summary = summary.Add(buildSummary)
	if len(survivors) == 0 {
		return summary
	}

	var sendable []BuiltNotice
	for _, b := range survivors {
		if b.sendable() {
			sendable = append(sendable, b)
		}
	}

	if len(sendable) > 0 {
		members := make([]domain.NoticeContext, len(sendable))
		for i, b := range sendable {
			members[i] = b.Context
		}

		token := sendable[0].Handler.GroupToken()
		if err := e.dispatcher.SendGroup(ctx, token, members); err != nil {
			e.errorLog.PublishNoticeError(ctx, BuildGroupedNotice(token, members).Log, err.Error())
			summary.Failed += len(sendable)
			summary.Untouched += len(survivors) - len(sendable)
			return summary
		}

		summary.Messages++
		summary.Sent += len(sendable)
	}

	for i, b := range survivors {
		switch {
		case b.Verdict.Irrelevant:
			summary.Skipped++
		case b.sendable():
			survivors[i] = e.afterSend(ctx, b, now)
		}
	}

	return summary.Add(e.rescheduleAll(ctx, survivors, now))
}

// buildGroup builds the context of every member concurrently and keeps the ones that succeeded
func (e *Engine) buildGroup(ctx context.Context, group NoticeGroup, now time.Time) ([]BuiltNotice, domain.Summary) {
	built := make([]BuiltNotice, len(group.Notices))
	errs := make([]error, len(group.Notices))

	var g errgroup.Group
	g.SetLimit(e.config.NoticeConcurrency)
	for i, notice := range group.Notices {
		i, notice := i, notice
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("building notice %s panicked: %v", notice.ID, r)
				}
			}()
			built[i], errs[i] = e.builder.Build(ctx, notice, now)
			return nil
		})
	}
	_ = g.Wait()

	var summary domain.Summary
	survivors := make([]BuiltNotice, 0, len(built))
	for i, err := range errs {
		switch {
		case err == nil:
			survivors = append(survivors, built[i])
		case customError.IsReferenceNotFound(err):
			summary.CleanedUp++
		default:
			summary.Failed++
		}
	}

	return survivors, summary
}

func (e *Engine) afterSend(ctx context.Context, b BuiltNotice, now time.Time) BuiltNotice {
	hook, ok := b.Handler.(afterSendHook)
	if !ok {
		return b
	}

	nc, err := hook.AfterSend(ctx, b.Context, now)
	if err != nil {
		e.log.WithError(err).WithField("notice_id", b.Context.Notice.ID).Error("failed to record side effects of sent notice")
	}

	b.Context = nc
	return b
}

// rescheduleAll persists the recurrence outcome of every member concurrently
func (e *Engine) rescheduleAll(ctx context.Context, members []BuiltNotice, now time.Time) domain.Summary {
	results := make([]domain.Summary, len(members))

	var g errgroup.Group
	g.SetLimit(e.config.NoticeConcurrency)
	for i, b := range members {
		i, b := i, b
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					e.log.WithField("notice_id", b.Context.Notice.ID).Errorf("rescheduling panicked: %v", r)
					results[i] = domain.Summary{Failed: 1}
				}
			}()
			results[i] = e.reschedule(ctx, b, now)
			return nil
		})
	}
	_ = g.Wait()

	var summary domain.Summary
	for _, r := range results {
		summary = summary.Add(r)
	}
	return summary
}

func (e *Engine) reschedule(ctx context.Context, b BuiltNotice, now time.Time) domain.Summary {
	notice := b.Context.Notice
	outcome := b.Handler.Reschedule(b.Context, now)

	log := e.log.WithFields(logrus.Fields{
		"notice_id": notice.ID,
		"outcome":   outcome.Kind.String(),
	})

	switch outcome.Kind {
	case OutcomeDelete:
		if err := e.notices.Delete(ctx, notice.ID); err != nil {
			log.WithError(err).Error("failed to delete notice")
			return domain.Summary{Failed: 1}
		}
		log.WithField("reason", outcome.Reason).Debug("notice deleted")
		return domain.Summary{Deleted: 1}

	case OutcomeUpdate:
		if _, err := e.notices.Update(ctx, outcome.Next); err != nil {
			log.WithError(err).Error("failed to update notice")
			return domain.Summary{Failed: 1}
		}
		log.WithField("next_run_time", outcome.Next.NextRunTime).Debug("notice rescheduled")
		return domain.Summary{Updated: 1}

	default:
		log.WithField("reason", outcome.Reason).Debug("notice retained")
		return domain.Summary{Untouched: 1}
	}
}

// ProcessOptions narrows one on-demand processing run
type ProcessOptions struct {
	RealTime bool
	Events   []domain.TriggeringEvent
	Limit    int
}

// Engines pairs the real-time engine with the daily one
type Engines struct {
	RealTime    *Engine
	NotRealTime *Engine
}

// Process runs the engine selected by opts once at now
func (e Engines) Process(ctx context.Context, opts ProcessOptions, now time.Time) (domain.Summary, error) {
	engine := e.NotRealTime
	if opts.RealTime {
		engine = e.RealTime
	}
	if len(opts.Events) > 0 {
		engine = engine.WithEvents(opts.Events)
	}
	return engine.WithPageLimit(opts.Limit).ProcessDueNotices(ctx, now)
}
