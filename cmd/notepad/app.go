package main

import (
	"github.com/labstack/gommon/log"

	"notepad/pkg/auth"
	"notepad/pkg/config"
	"notepad/pkg/reminder"
	"notepad/pkg/services"
	"notepad/pkg/storage"
)

// app is the service graph shared by every command
type app struct {
	notes     *services.NoteService
	auth      *services.AuthService
	sessions  *auth.Manager
	store     *storage.NoteStore
	settings  *storage.SettingsStore
	media     *storage.MediaStore
	timers    *reminder.AfterFuncTimers
	scheduler *reminder.Scheduler
	triggers  reminder.TriggerStore
}

// newApp builds the services over cfg. Reminders are delivered through
// notifier and their triggers kept in triggers.
func newApp(cfg *config.Config, triggers reminder.TriggerStore, notifier reminder.Notifier) *app {
	a := &app{
		store:    storage.NewNoteStore(cfg.DataDir),
		settings: storage.NewSettingsStore(cfg.DataDir),
		media:    storage.NewMediaStore(cfg.DataDir),
		sessions: auth.NewManager(cfg.SessionTimeout()),
		timers:   reminder.NewAfterFuncTimers(),
		triggers: triggers,
	}
	a.scheduler = reminder.NewScheduler(a.timers, triggers, notifier)
	a.notes = services.NewNoteService(
		a.store,
		storage.NewBackupStore(cfg.BackupDir),
		storage.NewExporter(cfg.ExportDir),
		a.scheduler,
	)
	a.notes.SetMaxBackups(cfg.MaxBackups)
	a.auth = services.NewAuthService(storage.NewUserStore(cfg.DataDir), storage.NewPrefsStore(cfg.DataDir), a.sessions)
	return a
}

// openCLI builds an app for one-shot commands. Triggers stay in memory so
// a running server keeps sole ownership of the trigger database; it picks
// up reminder changes through its file watcher.
func openCLI(cfg *config.Config) *app {
	a := newApp(cfg, reminder.NewMemoryStore(), reminder.LogNotifier{})
	a.notes.Load()
	return a
}

func (a *app) Close() {
	a.scheduler.Stop()
	a.timers.Stop()
	if err := a.triggers.Close(); err != nil {
		log.Warnf("Closing reminder store: %v", err)
	}
}
