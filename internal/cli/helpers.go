package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func ensureOutputDir(path string) error {
	if path == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	return os.MkdirAll(path, 0o755)
}

// sidecarSuffix marks companion metadata files that are merged into their
// primary file's record instead of being scanned on their own.
const sidecarSuffix = ".metadata.json"

// resolveTargets expands files and directories into the concrete file list to
// scan, sorted for reproducible run order.
func resolveTargets(targets []string, recursive bool) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string

	add := func(path string) {
		if strings.HasSuffix(path, sidecarSuffix) {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", target, err)
		}

		if !info.IsDir() {
			add(target)
			continue
		}

		if recursive {
			err = filepath.WalkDir(target, func(path string, entry os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !entry.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walk %s: %w", target, err)
			}
			continue
		}

		entries, err := os.ReadDir(target)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", target, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				add(filepath.Join(target, entry.Name()))
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
