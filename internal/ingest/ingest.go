package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"worldforge/internal/logger"
	"worldforge/internal/parser"
	"worldforge/internal/world"
)

// Merger receives one keyed merge per section.
type Merger interface {
	MergeKeyed(section world.Section, result any) error
}

type Result struct {
	EntriesMerged int
	FilesSkipped  int
	Sections      map[world.Section]int
	Errors        []error
}

type Options struct {
	Exclude []string
}

// Run parses every markdown file under roots and merges the documents into
// their keyed sections. Per-file problems are collected in Result.Errors and
// do not stop the run.
func Run(ctx context.Context, roots []string, target Merger, options Options) (*Result, error) {
	files, err := walkMarkdownFiles(roots, options.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking lore files: %w", err)
	}

	result := &Result{Sections: make(map[world.Section]int)}
	batches := make(map[world.Section]map[string]any)
	origins := make(map[string]string)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) || errors.Is(err, parser.ErrMissingType) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}

		section, err := doc.Section()
		if err != nil {
			logger.Log.WithFields(logrus.Fields{"file": path, "type": doc.Type}).Debug("skipping lore file")
			result.FilesSkipped++
			continue
		}

		batch, ok := batches[section]
		if !ok {
			batch = make(map[string]any)
			batches[section] = batch
		}
		key := string(section) + "\x00" + doc.Title
		if prev, dup := origins[key]; dup {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %q already defined in %s, later file wins", path, doc.Title, prev))
		}
		origins[key] = path
		record := doc.Record()
		record["source"] = filepath.ToSlash(path)
		batch[doc.Title] = map[string]any(record)
	}

	sections := make([]world.Section, 0, len(batches))
	for section := range batches {
		sections = append(sections, section)
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i] < sections[j] })

	for _, section := range sections {
		batch := batches[section]
		if err := target.MergeKeyed(section, batch); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("merging %s: %w", section, err))
			continue
		}
		result.Sections[section] = len(batch)
		result.EntriesMerged += len(batch)
	}

	logger.Log.WithFields(logrus.Fields{
		"files":   len(files),
		"merged":  result.EntriesMerged,
		"skipped": result.FilesSkipped,
		"errors":  len(result.Errors),
	}).Info("lore import finished")
	return result, nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}
