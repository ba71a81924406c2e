// Command cwb-logs maintains the blog's log directory.
//
//	cwb-logs [-dir DIR] [-lines N] [clear|show|list|size]
//
// clear moves a non-empty debug.log into a timestamped archive and leaves an
// empty file. show prints its last lines and is the default action. list
// prints every file with its size, and size prints the size of debug.log.
// The directory is created if missing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"codewithbrain/internal/logging"
)

const defaultLines = 50

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, "cwb-logs:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, now func() time.Time) error {
	fset := flag.NewFlagSet("cwb-logs", flag.ContinueOnError)
	fset.SetOutput(out)
	dir := fset.String("dir", envOr("LOG_DIR", "logs"), "log directory")
	lines := fset.Int("lines", defaultLines, "number of lines for show")
	fset.Usage = func() {
		fmt.Fprintln(out, "usage: cwb-logs [-dir DIR] [-lines N] [clear|show|list|size]")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() > 1 {
		fset.Usage()
		return errors.New("at most one action is allowed")
	}
	action := "show"
	if fset.NArg() == 1 {
		action = fset.Arg(0)
	}

	if err := logging.EnsureDir(*dir); err != nil {
		return err
	}
	debugLog := filepath.Join(*dir, logging.AppFile)

	switch action {
	case "clear":
		archive, err := logging.Archive(*dir, logging.AppFile, now())
		if err != nil {
			return err
		}
		if archive != "" {
			fmt.Fprintf(out, "Archived to %s\n", archive)
		}
		fmt.Fprintln(out, "Log file cleared.")

	case "show":
		tail, err := logging.Tail(debugLog, *lines)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, "Log file does not exist.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Last %d lines of %s:\n", len(tail), debugLog)
		for _, line := range tail {
			fmt.Fprintln(out, line)
		}

	case "list":
		files, err := logging.List(*dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(out, "No log files.")
			return nil
		}
		for _, f := range files {
			fmt.Fprintf(out, "%-45s %10.2f KB\n", f.Name, f.SizeKB())
		}

	case "size":
		size, err := logging.Size(debugLog)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, "Log file does not exist.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %.2f MB\n", debugLog, float64(size)/(1024*1024))

	default:
		fset.Usage()
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
