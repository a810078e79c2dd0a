package config

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether a path (relative to the project root, slash
// separated) belongs to the project file list. Explicit Files entries always
// match; otherwise the path must match an Include pattern and no Exclude
// pattern.
func (p *Project) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, f := range p.Files {
		if filepath.ToSlash(f) == rel {
			return true
		}
	}
	included := len(p.Include) == 0
	for _, pat := range p.Include {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pat := range p.Exclude {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return false
		}
	}
	return true
}

// Scan walks the project root and returns the matching files as absolute
// paths in deterministic order. Unreadable directories are skipped.
func (p *Project) Scan() ([]string, error) {
	root := p.RootDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		if p.Matches(rel) {
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
