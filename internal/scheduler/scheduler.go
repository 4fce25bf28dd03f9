package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"iris/internal/config"
	"iris/internal/email"
	"iris/internal/models"
	"iris/internal/repository"
)

const (
	digestLimit    = 20
	excerptLength  = 80
	rmQueueLabel   = "RM"
	ibuQueueLabel  = "IBU"
	rmQueueLink    = "/rm-dashboard/"
	ibuQueueLink   = "/ibu-dashboard/"
	defaultTimeout = 5 * time.Minute
)

// Mailer delivers the scheduled emails
type Mailer interface {
	SendNotificationDigest(to, name string, items []email.DigestItem) error
	SendReviewReminder(to, name, queue, link string, items []email.ReminderItem) error
}

// ChallengeCloser closes Live challenges whose end date has passed
type ChallengeCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler handles periodic tasks
type Scheduler struct {
	store    repository.Store
	mailer   Mailer
	closer   ChallengeCloser
	config   *config.SchedulerConfig
	now      func() time.Time
	stopChan chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(store repository.Store, mailer Mailer, closer ChallengeCloser, cfg *config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		store:    store,
		mailer:   mailer,
		closer:   closer,
		config:   cfg,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start starts all enabled scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"digest_enabled", s.config.EnableDigest,
		"review_reminder_enabled", s.config.EnableReviewReminder,
		"close_expired_enabled", s.config.EnableCloseExpired)

	if s.config.EnableDigest && s.mailer != nil {
		if err := s.startCronTask(s.config.DigestCron, "notification_digest", s.digestTask); err != nil {
			slog.Error("Failed to start notification digest", "error", err)
		}
	}

	if s.config.EnableReviewReminder && s.mailer != nil {
		if err := s.startCronTask(s.config.ReviewReminderCron, "review_reminders", s.reminderTask); err != nil {
			slog.Error("Failed to start review reminders", "error", err)
		}
	}

	if s.config.EnableCloseExpired && s.closer != nil {
		if err := s.startCronTask(s.config.CloseExpiredCron, "close_expired", s.closeExpiredTask); err != nil {
			slog.Error("Failed to start challenge closure", "error", err)
		}
	}

	slog.Info("Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stopChan)
}

// scheduleKind is the shape of cron expression the scheduler understands
type scheduleKind int

const (
	everyNMinutes scheduleKind = iota
	everyNHours
	daily
	weekly
)

// schedule is a parsed cron expression
type schedule struct {
	kind     scheduleKind
	interval int
	minute   int
	hour     int
	weekday  time.Weekday
}

// parseCron parses the supported cron subset: "minute hour day month weekday"
// Examples: "0 9 * * 1" = Monday 9 AM, "0 8 * * *" = Daily 8 AM,
// "*/5 * * * *" = Every 5 minutes, "0 */1 * * *" = Every hour on the hour
func parseCron(cronExpr string) (schedule, error) {
	parts := strings.Fields(cronExpr)
	if len(parts) != 5 {
		return schedule{}, fmt.Errorf("invalid cron expression: %s (expected 5 fields)", cronExpr)
	}

	if strings.HasPrefix(parts[0], "*/") {
		interval, err := strconv.Atoi(parts[0][2:])
		if err != nil || interval < 1 || interval > 59 {
			return schedule{}, fmt.Errorf("invalid minute interval in cron: %s", parts[0])
		}
		return schedule{kind: everyNMinutes, interval: interval}, nil
	}

	minute, err := strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return schedule{}, fmt.Errorf("invalid minute in cron: %s", parts[0])
	}

	if strings.HasPrefix(parts[1], "*/") {
		interval, err := strconv.Atoi(parts[1][2:])
		if err != nil || interval < 1 || interval > 23 {
			return schedule{}, fmt.Errorf("invalid hour interval in cron: %s", parts[1])
		}
		return schedule{kind: everyNHours, interval: interval, minute: minute}, nil
	}

	hour, err := strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return schedule{}, fmt.Errorf("invalid hour in cron: %s", parts[1])
	}

	if parts[4] == "*" {
		return schedule{kind: daily, hour: hour, minute: minute}, nil
	}
	weekday, err := strconv.Atoi(parts[4])
	if err != nil || weekday < 0 || weekday > 6 {
		return schedule{}, fmt.Errorf("invalid weekday in cron: %s (0-6, 0=Sunday)", parts[4])
	}
	return schedule{kind: weekly, hour: hour, minute: minute, weekday: time.Weekday(weekday)}, nil
}

// next returns the first run time strictly after from
func (sc schedule) next(from time.Time) time.Time {
	switch sc.kind {
	case everyNMinutes:
		return from.Truncate(time.Minute).Add(time.Duration(sc.interval) * time.Minute)
	case everyNHours:
		return nextHourlyInterval(from, sc.interval, sc.minute)
	case weekly:
		return nextWeekday(from, sc.weekday, sc.hour, sc.minute)
	default:
		return nextDailyRun(from, sc.hour, sc.minute)
	}
}

// startCronTask parses a cron expression and starts the task loop
func (s *Scheduler) startCronTask(cronExpr, taskName string, task func()) error {
	sc, err := parseCron(cronExpr)
	if err != nil {
		return err
	}
	go s.run(sc, taskName, task)
	return nil
}

func (s *Scheduler) run(sc schedule, taskName string, task func()) {
	for {
		now := s.now()
		next := sc.next(now)

		slog.Info("Next task scheduled", "task", taskName, "next_run", next.Format("2006-01-02 15:04:05"))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-timer.C:
			slog.Info("Running scheduled task", "task", taskName)
			task()
		case <-s.stopChan:
			timer.Stop()
			return
		}
	}
}

// nextHourlyInterval calculates the next run time for hourly intervals
func nextHourlyInterval(from time.Time, hourInterval, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), minute, 0, 0, from.Location())

	// If the time has passed in this hour, move to next hour
	if !next.After(from) {
		next = next.Add(time.Hour)
	}

	for next.Hour()%hourInterval != 0 {
		next = next.Add(time.Hour)
	}

	return next
}

// nextWeekday calculates the next occurrence of a specific weekday and time
func nextWeekday(from time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())

	daysUntil := int(weekday - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}
	next = next.AddDate(0, 0, daysUntil)

	// If the calculated time has already passed today, add 7 days
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}

	return next
}

// nextDailyRun calculates the next daily run time
func nextDailyRun(from time.Time, hour, minute int) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())

	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

func (s *Scheduler) digestTask() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if _, err := s.SendDigests(ctx); err != nil {
		slog.Error("Notification digest failed", "error", err)
	}
}

func (s *Scheduler) reminderTask() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if _, err := s.SendReviewReminders(ctx); err != nil {
		slog.Error("Review reminders failed", "error", err)
	}
}

func (s *Scheduler) closeExpiredTask() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	closed, err := s.closer.CloseExpired(ctx, s.now())
	if err != nil {
		slog.Error("Closing expired challenges failed", "error", err)
		return
	}
	slog.Info("Expired challenges closed", "count", closed)
}

// SendDigests mails every user with unread notifications a summary of them.
// A failed mail is logged and skipped; the count of sent mails is returned.
func (s *Scheduler) SendDigests(ctx context.Context) (int, error) {
	repos := s.store.Repos()
	recipients, err := repos.Notifications.ListRecipientsWithUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list digest recipients: %w", err)
	}
	users, err := repos.Users.ListByIDs(ctx, recipients)
	if err != nil {
		return 0, fmt.Errorf("failed to load digest recipients: %w", err)
	}

	sent := 0
	for _, u := range users {
		unread, err := repos.Notifications.ListByRecipient(ctx, u.ID, true, digestLimit)
		if err != nil {
			slog.Error("Failed to load unread notifications", "user_id", u.ID, "error", err)
			continue
		}
		items := make([]email.DigestItem, 0, len(unread))
		for _, n := range unread {
			item := email.DigestItem{Message: n.Message, CreatedAt: n.CreatedAt}
			if n.Link != nil {
				item.Link = *n.Link
			}
			items = append(items, item)
		}
		if err := s.mailer.SendNotificationDigest(u.Email, u.FullName, items); err != nil {
			slog.Error("Failed to send notification digest", "user_email", u.Email, "error", err)
			continue
		}
		sent++
	}

	slog.Info("Notification digests sent", "count", sent)
	return sent, nil
}

// SendReviewReminders mails every reporting manager with grassroot ideas
// waiting at the RM stage, and every IBU head while ideas wait at the IBU
// stage. The count of sent mails is returned.
func (s *Scheduler) SendReviewReminders(ctx context.Context) (int, error) {
	repos := s.store.Repos()
	now := s.now()

	pendingRM, err := repos.Grassroots.List(ctx, repository.GrassrootFilter{Status: models.GrassrootSubmittedRM})
	if err != nil {
		return 0, fmt.Errorf("failed to list RM queue: %w", err)
	}
	pendingIBU, err := repos.Grassroots.List(ctx, repository.GrassrootFilter{Status: models.GrassrootApprovedRM})
	if err != nil {
		return 0, fmt.Errorf("failed to list IBU queue: %w", err)
	}

	names, err := s.ideatorNames(ctx, repos, append(pendingRM, pendingIBU...))
	if err != nil {
		return 0, err
	}

	byManager := make(map[string][]email.ReminderItem)
	var managerIDs []string
	for _, g := range pendingRM {
		emp, err := repos.Employees.GetByUserID(ctx, g.IdeatorID)
		if err != nil || emp == nil || emp.ReportingManagerID == nil {
			slog.Warn("Grassroot idea has no reporting manager to remind", "grassroot_id", g.ID)
			continue
		}
		managerID := *emp.ReportingManagerID
		if _, seen := byManager[managerID]; !seen {
			managerIDs = append(managerIDs, managerID)
		}
		byManager[managerID] = append(byManager[managerID], reminderItem(g, names, now))
	}

	sent := 0
	managers, err := repos.Users.ListByIDs(ctx, managerIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to load reporting managers: %w", err)
	}
	for _, m := range managers {
		if err := s.mailer.SendReviewReminder(m.Email, m.FullName, rmQueueLabel, rmQueueLink, byManager[m.ID]); err != nil {
			slog.Error("Failed to send RM reminder", "user_email", m.Email, "error", err)
			continue
		}
		sent++
	}

	if len(pendingIBU) > 0 {
		items := make([]email.ReminderItem, 0, len(pendingIBU))
		for _, g := range pendingIBU {
			items = append(items, reminderItem(g, names, now))
		}
		heads, err := repos.Roles.GetUsersByRole(ctx, models.RoleIBUHead)
		if err != nil {
			return sent, fmt.Errorf("failed to load IBU heads: %w", err)
		}
		for _, h := range heads {
			if err := s.mailer.SendReviewReminder(h.Email, h.FullName, ibuQueueLabel, ibuQueueLink, items); err != nil {
				slog.Error("Failed to send IBU reminder", "user_email", h.Email, "error", err)
				continue
			}
			sent++
		}
	}

	slog.Info("Review reminders sent", "count", sent, "rm_queue", len(pendingRM), "ibu_queue", len(pendingIBU))
	return sent, nil
}

func (s *Scheduler) ideatorNames(ctx context.Context, repos repository.Repositories, ideas []models.GrassrootIdea) (map[string]string, error) {
	ids := make([]string, 0, len(ideas))
	for _, g := range ideas {
		ids = append(ids, g.IdeatorID)
	}
	users, err := repos.Users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load ideators: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names, nil
}

func reminderItem(g models.GrassrootIdea, names map[string]string, now time.Time) email.ReminderItem {
	excerpt := g.ProposedIdea
	if utf8.RuneCountInString(excerpt) > excerptLength {
		excerpt = string([]rune(excerpt)[:excerptLength]) + "..."
	}
	return email.ReminderItem{
		IdeatorName:  names[g.IdeatorID],
		Excerpt:      excerpt,
		DaysInStatus: int(now.Sub(g.UpdatedAt).Hours() / 24),
	}
}
