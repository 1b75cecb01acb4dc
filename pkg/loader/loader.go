package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Filter decides whether a file takes part in a registry load.
type Filter func(path string) bool

type Options struct {
	Recursive bool
}

// ExtFilter accepts files whose extension is one of exts (case-insensitive, dot optional).
// Hidden files are always rejected.
func ExtFilter(exts ...string) Filter {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}
	return func(path string) bool {
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") {
			return false
		}
		return allowed[strings.ToLower(filepath.Ext(base))]
	}
}

// DefaultFilter accepts YAML manifests.
var DefaultFilter = ExtFilter(".yaml", ".yml")

// Files lists the files under folder accepted by filter, in lexical path order.
// Subfolders are visited only when opts.Recursive is set.
func Files(folder string, filter Filter, opts Options) ([]string, error) {
	if filter == nil {
		filter = DefaultFilter
	}
	info, err := os.Stat(folder)
	if err != nil {
		return nil, fmt.Errorf("open folder %s: %w", folder, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a folder", folder)
	}

	var files []string
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == folder {
				return err
			}
			logrus.WithError(err).Warnf("[REGISTRY] Skipping unreadable %s", path)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != folder && (!opts.Recursive || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filter(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
