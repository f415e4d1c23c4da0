package branchwire

import (
	"fmt"
	"log/slog"
)

// Apply integrates the project described by cfg on disk and returns the
// modified and failed paths.
func Apply(cfg *Config, logger *slog.Logger) (map[string][]string, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load patch catalog: %w", err)
	}
	return apply(cfg, catalog, NewFileStore(osRoot()), logger)
}

func apply(cfg *Config, catalog *Catalog, store Store, logger *slog.Logger) (map[string][]string, error) {
	report, err := NewIntegrator(cfg, catalog, store, NewTracker(), logger).Run()
	if err != nil {
		return nil, err
	}

	var failed []string
	for _, f := range report.Files {
		if f.Failed() {
			failed = append(failed, f.Path)
		}
	}
	return map[string][]string{
		"Modified": report.Modified,
		"Failed":   failed,
	}, nil
}
