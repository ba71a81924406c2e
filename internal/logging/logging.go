// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logging builds the application's slog loggers and manages the
// log files they write to. Three channels exist: app (everything), admin
// (audit records) and access (admin HTTP traffic). Loggers are created once
// in main and injected; nothing in this package is global.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Channel file names inside the log directory.
const (
	AppFile    = "debug.log"
	AdminFile  = "admin.log"
	AccessFile = "access.log"
)

// Options controls logger construction.
type Options struct {
	// Dir is the log directory. Empty disables file output.
	Dir string
	// Level is the minimum level for all channels.
	Level slog.Level
	// JSON selects the JSON handler instead of the text handler.
	JSON bool
	// Stdout receives every record in addition to the files. Defaults to
	// os.Stdout; set to io.Discard to silence console output.
	Stdout io.Writer
}

// Loggers holds the three channel loggers and the files behind them.
type Loggers struct {
	App    *slog.Logger
	Admin  *slog.Logger
	Access *slog.Logger

	dir   string
	files []*logFile
}

// logFile is a channel file that can be rotated while loggers write to it.
// Writes and rotation share one lock, so a record lands either in the
// archive or in the fresh file.
type logFile struct {
	mu   sync.Mutex
	dir  string
	name string
	f    *os.File
}

func (lf *logFile) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.f.Write(p)
}

// archive rotates the file and reopens it at its usual path.
func (lf *logFile) archive(now time.Time) (string, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	archive, err := Archive(lf.dir, lf.name, now)
	if err != nil || archive == "" {
		return archive, err
	}
	f, err := openAppend(filepath.Join(lf.dir, lf.name))
	if err != nil {
		return archive, err
	}
	lf.f.Close()
	lf.f = f
	return archive, nil
}

func (lf *logFile) close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.f.Close()
}

// New opens the log files (creating Dir if needed) and builds the loggers.
func New(opts Options) (*Loggers, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Dir != "" {
		if err := EnsureDir(opts.Dir); err != nil {
			return nil, err
		}
	}

	l := &Loggers{dir: opts.Dir}
	build := func(channel, file string) (*slog.Logger, error) {
		w := opts.Stdout
		if opts.Dir != "" {
			f, err := openAppend(filepath.Join(opts.Dir, file))
			if err != nil {
				return nil, err
			}
			lf := &logFile{dir: opts.Dir, name: file, f: f}
			l.files = append(l.files, lf)
			w = io.MultiWriter(opts.Stdout, lf)
		}
		return slog.New(newHandler(w, opts)).With("logger", channel), nil
	}

	var err error
	if l.App, err = build("app", AppFile); err != nil {
		l.Close()
		return nil, err
	}
	if l.Admin, err = build("admin", AdminFile); err != nil {
		l.Close()
		return nil, err
	}
	if l.Access, err = build("access", AccessFile); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

// Dir returns the log directory, empty when file output is disabled.
func (l *Loggers) Dir() string { return l.dir }

// Archive rotates every channel file into a timestamped archive and keeps
// logging into fresh files. It returns the archives created, keyed by
// channel file name. Without a log directory it does nothing.
func (l *Loggers) Archive(now time.Time) (map[string]string, error) {
	archived := make(map[string]string)
	var errs []error
	for _, lf := range l.files {
		archive, err := lf.archive(now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", lf.name, err))
			continue
		}
		if archive != "" {
			archived[lf.name] = archive
		}
	}
	return archived, errors.Join(errs...)
}

// Close closes every open log file.
func (l *Loggers) Close() error {
	var errs []error
	for _, f := range l.files {
		if err := f.close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.files = nil
	return errors.Join(errs...)
}

func newHandler(w io.Writer, opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		return slog.NewJSONHandler(w, ho)
	}
	return slog.NewTextHandler(w, ho)
}

// openAppend opens path for appending. O_APPEND keeps writes at the end of
// the file when it is truncated underneath an open handle.
func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ParseLevel converts "debug", "info", "warn" or "error" to a slog level.
// Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
