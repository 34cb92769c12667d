package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"gopkg.in/yaml.v3"
)

// SetLoader reads question set content from YAML files in a directory, one
// set per file. Files are loaded in lexical name order, so prefixing file
// names controls which set is the default.
type SetLoader struct {
	dir string
}

func NewSetLoader(dir string) *SetLoader {
	return &SetLoader{dir: dir}
}

func (l *SetLoader) LoadSets(_ context.Context) ([]domain.QuestionSet, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read question set dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	sets := make([]domain.QuestionSet, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read question set %s: %w", name, err)
		}
		var set domain.QuestionSet
		if err := yaml.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("parse question set %s: %w", name, err)
		}
		sets = append(sets, set)
	}

	if err := domain.ValidateSets(sets); err != nil {
		return nil, fmt.Errorf("invalid question set content: %w", err)
	}
	return sets, nil
}
