// Package fs provides file-based storage for crawl output: checkpoints,
// output file naming and atomic writes.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/sapnhap"
)

// FileTimestampLayout is the timestamp format used in output file names.
const FileTimestampLayout = "20060102_150405"

// Output file name prefixes.
const (
	ReportPrefix     = "sap_nhap"
	RetryPrefix      = "sap_nhap_retry"
	ErrorLogPrefix   = "error_log_"
	CheckpointPrefix = "checkpoint_"
)

// ReportName returns the file name of a report written at t.
func ReportName(prefix string, t time.Time, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, t.Format(FileTimestampLayout), ext)
}

// ErrorLogName returns the file name of an error log written at t.
func ErrorLogName(t time.Time, ext string) string {
	return ErrorLogPrefix + t.Format(FileTimestampLayout) + ext
}

// WriteFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// LatestErrorLog returns the most recently modified error log (.xlsx or
// .csv) in dir. It fails with ENOTFOUND when there is none.
func LatestErrorLog(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", sapnhap.Errorf(sapnhap.ENOTFOUND, "output directory %s does not exist", dir)
		}
		return "", err
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var found []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ErrorLogPrefix) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".csv" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}
	if len(found) == 0 {
		return "", sapnhap.Errorf(sapnhap.ENOTFOUND, "no error log found in %s", dir)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].modTime.Equal(found[j].modTime) {
			return found[i].path > found[j].path
		}
		return found[i].modTime.After(found[j].modTime)
	})
	return found[0].path, nil
}
