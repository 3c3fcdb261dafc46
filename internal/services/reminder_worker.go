package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"yogastudio/internal/models"
	"yogastudio/internal/repository"
	"yogastudio/internal/schedule"
)

// reminderLeads are the lead times before a session at which reminders go out
var reminderLeads = []struct {
	kind models.ReminderType
	lead time.Duration
}{
	{models.Reminder24Hour, 24 * time.Hour},
	{models.Reminder1Hour, time.Hour},
}

// ReminderResult counts what one cycle did
type ReminderResult struct {
	Groups      int `json:"groups"`
	Occurrences int `json:"occurrences"`
	Sent        int `json:"sent"`
	Skipped     int `json:"skipped"`
	Failures    int `json:"failures"`
}

// ReminderScheduler sends 24 hour and 1 hour reminders for upcoming sessions
type ReminderScheduler struct {
	store      *repository.Store
	dispatcher *Dispatcher
	email      *EmailService
	interval   time.Duration
	now        func() time.Time
	log        *zap.Logger

	mu   sync.Mutex
	wg   sync.WaitGroup
	cron *cron.Cron
}

func NewReminderScheduler(store *repository.Store, dispatcher *Dispatcher, email *EmailService, interval time.Duration, now func() time.Time, log *zap.Logger) *ReminderScheduler {
	if now == nil {
		now = time.Now
	}
	return &ReminderScheduler{
		store:      store,
		dispatcher: dispatcher,
		email:      email,
		interval:   interval,
		now:        now,
		log:        log.With(zap.String("component", "reminders")),
	}
}

// Start runs one cycle immediately and then one every interval until ctx is
// cancelled or Stop is called
func (w *ReminderScheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(zap.NewStdLog(w.log))),
		cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(w.log))),
	))
	every := fmt.Sprintf("@every %s", w.interval)
	if _, err := c.AddFunc(every, func() { w.runCycle(ctx) }); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	w.cron = c
	c.Start()
	w.log.Info("reminder scheduler started", zap.Duration("interval", w.interval))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runCycle(ctx)
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish
func (w *ReminderScheduler) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.wg.Wait()
}

func (w *ReminderScheduler) runCycle(ctx context.Context) {
	result := w.ProcessReminders(ctx)
	w.log.Info("reminder cycle finished",
		zap.Int("groups", result.Groups),
		zap.Int("occurrences", result.Occurrences),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", result.Failures))
}

// ProcessReminders runs one cycle. now is truncated to the interval and for
// each reminder type the window is [now+lead, now+lead+interval), so
// consecutive cycles tile time even when ticks fire late.
func (w *ReminderScheduler) ProcessReminders(ctx context.Context) ReminderResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	var result ReminderResult
	now := w.now().UTC()
	if w.interval > 0 {
		now = now.Truncate(w.interval)
	}

	groups, err := w.store.Groups.ListSchedulable(ctx)
	if err != nil {
		w.log.Error("failed to load groups", zap.Error(err))
		result.Failures++
		return result
	}

	for i := range groups {
		group := &groups[i]
		if err := schedule.Validate(group.Schedule); err != nil {
			w.log.Warn("skipping group with invalid schedule",
				zap.String("group_id", group.ID), zap.Error(err))
			result.Failures++
			continue
		}
		if schedule.Ended(group.Schedule, now) {
			continue
		}
		result.Groups++

		for _, l := range reminderLeads {
			start := now.Add(l.lead)
			occurrences, err := schedule.Expand(group.Schedule, start, start.Add(w.interval))
			if err != nil {
				w.log.Error("failed to expand schedule",
					zap.String("group_id", group.ID), zap.Error(err))
				result.Failures++
				break
			}
			for _, occ := range occurrences {
				result.Occurrences++
				sent, err := w.remind(ctx, group, occ, l.kind)
				switch {
				case err != nil:
					w.log.Error("reminder failed",
						zap.String("group_id", group.ID),
						zap.Time("session", occ),
						zap.String("type", string(l.kind)),
						zap.Error(err))
					result.Failures++
				case sent < 0:
					result.Skipped++
				default:
					result.Sent += sent
				}
			}
		}
	}

	return result
}

// remind notifies every active member of one occurrence. It returns -1 when
// the reminder was already sent.
func (w *ReminderScheduler) remind(ctx context.Context, group *models.Group, occ time.Time, kind models.ReminderType) (int, error) {
	key := models.SessionKey(occ)

	exists, err := w.store.ReminderLogs.Exists(ctx, group.ID, key, kind)
	if err != nil {
		return 0, fmt.Errorf("check reminder log: %w", err)
	}
	if exists {
		return -1, nil
	}

	userIDs, err := w.store.Members.ListActiveUserIDs(ctx, group.ID)
	if err != nil {
		return 0, fmt.Errorf("load members: %w", err)
	}

	title := ReminderTitle(group, kind)
	body := fmt.Sprintf("%s starts at %s", group.Name, occ.Format(time.RFC3339))
	data := map[string]string{
		"type":          "session_reminder",
		"group_id":      group.ID,
		"session":       key,
		"reminder_type": string(kind),
	}
	fallback := func(ctx context.Context, user *models.User) error {
		if w.email == nil || !w.email.Enabled() {
			return nil
		}
		return w.email.SendSessionReminder(ctx, user, group, occ, kind)
	}

	sent := 0
	for _, userID := range userIDs {
		if _, err := w.dispatcher.Send(ctx, userID, title, body, data, fallback); err != nil {
			w.log.Warn("failed to notify member",
				zap.String("group_id", group.ID),
				zap.String("user_id", userID),
				zap.Error(err))
			continue
		}
		sent++
	}

	err = w.store.ReminderLogs.Create(ctx, &models.ReminderLog{
		GroupID:      group.ID,
		SessionDate:  key,
		ReminderType: kind,
		Recipients:   sent,
		SentAt:       w.now().UTC(),
	})
	if err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return sent, fmt.Errorf("record reminder log: %w", err)
	}

	w.log.Info("reminders sent",
		zap.String("group_id", group.ID),
		zap.String("session", key),
		zap.String("type", string(kind)),
		zap.Int("recipients", sent))
	return sent, nil
}
