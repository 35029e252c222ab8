// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/app/system/notify"
	"go.uber.org/zap"
)

// Job is one periodic maintenance task. Jobs also back the internal
// trigger endpoint, so Run must be safe to invoke out of schedule.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// StreakReminderJob creates a job that nudges users whose activity
// streak is about to lapse: reminders enabled, last activity older than
// threshold. Delivery problems are data inside the dispatch result, not
// job failures; only the user query failing fails the job.
func StreakReminderJob(users *userstore.Store, dispatcher *notify.Dispatcher, logger *zap.Logger, threshold time.Duration) Job {
	return Job{
		Name:     "streak-reminder",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			audience, err := users.StaleStreakUserIDs(ctx, threshold)
			if err != nil {
				return err
			}
			if len(audience) == 0 {
				return nil
			}

			res, err := dispatcher.Dispatch(ctx, audience, notify.Message{
				Kind:  notify.KindStreakReminder,
				Title: "Your streak is about to end",
				Body:  "Spin the jar today to keep your streak alive.",
			})
			if err != nil {
				return err
			}
			logger.Info("streak reminders dispatched",
				zap.Int("audience", len(audience)),
				zap.Int("delivered", res.Delivered),
				zap.Int("skipped", res.Skipped),
				zap.Int("errors", len(res.Errors)),
				zap.Duration("threshold", threshold))
			return nil
		},
	}
}
