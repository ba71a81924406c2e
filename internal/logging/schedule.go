package logging

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ArchiveJob rotates every channel file of l. It is the body of the
// scheduled rotation and logs its own outcome on l.App.
func ArchiveJob(l *Loggers) func() {
	return func() {
		archived, err := l.Archive(time.Now())
		for name, archive := range archived {
			l.App.Info("log file archived", "file", name, "archive", archive)
		}
		if err != nil {
			l.App.Error("log archive failed", "error", err)
		}
	}
}

// NewScheduler returns a started cron scheduler running ArchiveJob on spec
// (standard cron syntax or a descriptor such as "@daily"). Callers stop it
// with Stop on shutdown.
func NewScheduler(spec string, l *Loggers) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, ArchiveJob(l)); err != nil {
		return nil, fmt.Errorf("schedule log archive %q: %w", spec, err)
	}
	c.Start()
	return c, nil
}
