// Package fixtures loads scenario definitions from a JSON document. A
// scenario overrides the repository lookups for one request, which keeps
// behavioral tests and demos independent from the configured catalog.
package fixtures

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/telensor/agenda/internal/booking/domain"
)

type document struct {
	Scenarios map[string]*domain.Scenario `json:"scenarios"`
}

// FileLoader reads scenarios from one JSON file, parsed once on first use.
// A missing file behaves like an empty scenario set so deployments without
// fixtures keep working.
type FileLoader struct {
	path   string
	logger *slog.Logger

	once      sync.Once
	scenarios map[string]*domain.Scenario
	err       error
}

var _ domain.ScenarioLoader = (*FileLoader)(nil)

// NewFileLoader creates a loader for the given path.
func NewFileLoader(path string, logger *slog.Logger) *FileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{path: path, logger: logger}
}

// LoadScenario returns the scenario with the given id, or (nil, nil) when
// the id or the fixture file is absent.
func (l *FileLoader) LoadScenario(id string) (*domain.Scenario, error) {
	l.once.Do(l.load)
	if l.err != nil {
		return nil, l.err
	}
	return l.scenarios[id], nil
}

func (l *FileLoader) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("scenario fixture file not found", "path", l.path)
			l.scenarios = map[string]*domain.Scenario{}
			return
		}
		l.err = fmt.Errorf("read scenario fixtures: %w", err)
		return
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		l.err = fmt.Errorf("parse scenario fixtures %s: %w", l.path, err)
		return
	}
	if doc.Scenarios == nil {
		doc.Scenarios = map[string]*domain.Scenario{}
	}
	l.scenarios = doc.Scenarios
	l.logger.Info("scenario fixtures loaded", "path", l.path, "count", len(l.scenarios))
}
