package scheduler

import (
	"context"

	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
	"github.com/tripleh1701-dev/ppp-fe-sub014/logger"
)

const (
	JobSessionCleanup = "session_cleanup"
	JobStatePurge     = "oauth_state_purge"
	JobBackup         = "database_backup"
)

// Purger drops expired entries and reports how many were removed.
type Purger interface {
	Purge() int
}

// Backuper writes a database backup.
type Backuper interface {
	Backup(ctx context.Context, dir string, maxBackups int) (string, error)
}

// Housekeeping holds the collaborators of the built-in jobs. Nil members
// leave their job unregistered.
type Housekeeping struct {
	Sessions Purger
	States   Purger
	Database Backuper
}

// Register adds the built-in jobs with the schedules of cfg.
func (h Housekeeping) Register(s *Scheduler, cfg *config.MainConfig) error {
	if h.Sessions != nil {
		if err := s.Add(JobSessionCleanup, cfg.Scheduler.SessionCleanup, purgeJob("sessions", h.Sessions)); err != nil {
			return err
		}
	}
	if h.States != nil {
		if err := s.Add(JobStatePurge, cfg.Scheduler.StatePurge, purgeJob("oauth states", h.States)); err != nil {
			return err
		}
	}
	if h.Database != nil {
		dir, keep := cfg.Database.BackupDir, cfg.Database.MaxBackups
		err := s.Add(JobBackup, cfg.Scheduler.Backup, func(ctx context.Context) error {
			target, err := h.Database.Backup(ctx, dir, keep)
			if err != nil {
				return err
			}
			logger.LogDynamicany(logger.StrInfo, "database backup written", logger.StrPath, target)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func purgeJob(what string, p Purger) JobFunc {
	return func(context.Context) error {
		if n := p.Purge(); n > 0 {
			logger.LogDynamicany(logger.StrInfo, "expired "+what+" removed", "count", n)
		}
		return nil
	}
}
