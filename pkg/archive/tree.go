// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultIgnore is always applied when packing a tree.
var defaultIgnore = []string{".git", ".git/**"}

// ExtractTree writes an outer archive to dir in its extracted form: sidecar
// JSON files at the root and one <packageKey>_<version>/ folder per inner
// archive holding the inner archive's files.
func ExtractTree(data []byte, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve destination directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	entries, err := ReadEntries(data)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name, InnerArchiveSuffix) || strings.Contains(e.Name, "/") {
			if err := writeTreeFile(absDir, e.Name, e.Data); err != nil {
				return err
			}
			continue
		}

		if _, err := ParseInnerArchiveName(e.Name); err != nil {
			return err
		}
		pkgDir := strings.TrimSuffix(e.Name, InnerArchiveSuffix)
		inner, err := ReadEntries(e.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		for _, ie := range inner {
			if err := writeTreeFile(absDir, pkgDir+"/"+ie.Name, ie.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

// PackTree builds an outer archive from an extracted tree. Root-level JSON
// files become sidecars, root-level zip files are taken verbatim and every
// root-level directory is zipped into an inner archive named after it. Paths
// matching an ignore glob (relative, slash-separated) are skipped; .git is
// always skipped.
func PackTree(dir string, ignore []string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory: %w", err)
	}

	patterns := slices.Concat(defaultIgnore, ignore)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}

	rootEntries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", absDir, err)
	}

	var sidecars, packages []Entry
	for _, de := range rootEntries {
		name := de.Name()
		if ignored(patterns, name) {
			continue
		}

		if de.IsDir() {
			innerData, packErr := packDir(absDir, name, patterns)
			if packErr != nil {
				return nil, packErr
			}
			archiveName := name + InnerArchiveSuffix
			if _, parseErr := ParseInnerArchiveName(archiveName); parseErr != nil {
				return nil, parseErr
			}
			packages = append(packages, Entry{Name: archiveName, Data: innerData})
			continue
		}

		switch {
		case name == ManifestFile || name == VariablesFile || name == StudioFile:
			data, readErr := os.ReadFile(filepath.Join(absDir, name))
			if readErr != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, readErr)
			}
			sidecars = append(sidecars, Entry{Name: name, Data: data})
		case strings.HasSuffix(name, InnerArchiveSuffix):
			data, readErr := os.ReadFile(filepath.Join(absDir, name))
			if readErr != nil {
				return nil, fmt.Errorf("failed to read %s: %w", name, readErr)
			}
			packages = append(packages, Entry{Name: name, Data: data})
		}
	}

	return WriteEntries(slices.Concat(sidecars, packages))
}

// packDir zips the contents of root/name with paths relative to that folder.
func packDir(root, name string, patterns []string) ([]byte, error) {
	pkgRoot := filepath.Join(root, name)
	var entries []Entry

	walkErr := filepath.WalkDir(pkgRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relToRoot, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		if ignored(patterns, filepath.ToSlash(relToRoot)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(pkgRoot, path)
		if relErr != nil {
			return fmt.Errorf("failed to get relative path: %w", relErr)
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read file %s: %w", path, readErr)
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(relPath), Data: data})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", name, walkErr)
	}

	return WriteEntries(entries)
}

func ignored(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, relPath); ok { //nolint:errcheck // patterns are validated up front
			return true
		}
	}
	return false
}

// writeTreeFile writes one archive entry below root, rejecting paths that
// would escape it.
func writeTreeFile(root, name string, data []byte) error {
	destPath := filepath.Join(root, filepath.FromSlash(name))

	relPath, relErr := filepath.Rel(root, destPath)
	if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path in ZIP: %s", name)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
