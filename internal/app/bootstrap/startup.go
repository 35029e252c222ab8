// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/app/system/tasks"
	"github.com/decisionjar/decisionjar/internal/app/system/workers"
)

// streakWorker is started here and stopped in Shutdown.
var streakWorker *workers.StreakReminder

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// The streak reminder worker starts here so reminders flow even when no
// requests arrive.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	dispatcher := buildDispatcher(deps, appCfg, logger)

	job := tasks.StreakReminderJob(users, dispatcher, logger, appCfg.StreakThreshold)
	if appCfg.StreakReminderInterval > 0 {
		job.Interval = appCfg.StreakReminderInterval
	}

	streakWorker = workers.NewStreakReminder(job, logger)
	streakWorker.Start()
	return nil
}
