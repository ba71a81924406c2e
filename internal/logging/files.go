package logging

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// archiveLayout is the timestamp format used in archive file names.
const archiveLayout = "20060102_150405"

// FileInfo describes one file in the log directory.
type FileInfo struct {
	Name string
	Size int64
}

// SizeKB returns the size in kilobytes.
func (f FileInfo) SizeKB() float64 { return float64(f.Size) / 1024 }

// EnsureDir creates the log directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	return nil
}

// ArchiveName returns the archive file name for base at time t, e.g.
// debug_archive_20260301_101500.log for debug.log.
func ArchiveName(base string, t time.Time) string {
	return archiveName(base, t, 0)
}

// archiveName appends _n to the timestamp for n > 0 so archives taken in
// the same second do not collide.
func archiveName(base string, t time.Time, n int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext) + "_archive_" + t.Format(archiveLayout)
	if n > 0 {
		stem += "_" + strconv.Itoa(n)
	}
	return stem + ext
}

// maxArchiveAttempts bounds the search for a free archive name.
const maxArchiveAttempts = 1000

// reserveArchive creates an empty placeholder under the first free archive
// name and returns its path. The placeholder is replaced by a rename.
func reserveArchive(dir, name string, now time.Time) (string, error) {
	for n := 0; n < maxArchiveAttempts; n++ {
		path := filepath.Join(dir, archiveName(name, now, n))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("reserve archive: %w", err)
		}
		f.Close()
		return path, nil
	}
	return "", fmt.Errorf("reserve archive: no free name for %s", name)
}

// Archive moves the file at dir/name to a timestamped archive and leaves an
// empty file in its place. The file is renamed, never copied: a process
// still holding the old handle keeps appending to the archive, so no record
// is lost. Callers owning such a handle reopen it afterwards (see
// Loggers.Archive). A file holding only whitespace is truncated without an
// archive. A missing file is created empty. Returns the archive path, or ""
// when nothing was archived.
func Archive(dir, name string, now time.Time) (string, error) {
	path := filepath.Join(dir, name)

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", touch(path)
	}
	if err != nil {
		return "", fmt.Errorf("read log file: %w", err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		if err := os.Truncate(path, 0); err != nil {
			return "", fmt.Errorf("truncate log file: %w", err)
		}
		return "", nil
	}

	archive, err := reserveArchive(dir, name, now)
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, archive); err != nil {
		os.Remove(archive)
		return "", fmt.Errorf("rotate log file: %w", err)
	}
	return archive, touch(path)
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	return f.Close()
}

// Tail returns the last n lines of the file at path.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}

	ring := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return ring, nil
}

// List returns the entries of dir sorted by name. Directories report size 0.
func List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		fi := FileInfo{Name: e.Name()}
		if !e.IsDir() {
			info, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
			}
			fi.Size = info.Size()
		}
		files = append(files, fi)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Size returns the size of the file at path in bytes.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
