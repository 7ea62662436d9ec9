package cli

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/shjno191/graviti/internal/analyzer"
	"github.com/shjno191/graviti/internal/config"
	"github.com/shjno191/graviti/internal/flowgraph"
	"github.com/shjno191/graviti/internal/store"
)

// analyzeFile reads and analyzes a Java source file, consulting the on-disk
// cache when it is enabled. The source bytes are returned alongside the
// graph because diagnostic commands print snippets from them.
func analyzeFile(cfg *config.Config, path string, noCache bool) (*flowgraph.CallGraph, []byte, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read source file: %w", err)
	}

	if noCache || !cfg.Store.Enabled {
		graph, err := analyzer.Parse(source)
		if err != nil {
			return nil, nil, fmt.Errorf("analyze %s: %w", path, err)
		}
		return graph, source, nil
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		// A broken cache must not block analysis.
		if verbose {
			log.Printf("cache unavailable, analyzing directly: %v", err)
		}
		graph, err := analyzer.Parse(source)
		if err != nil {
			return nil, nil, fmt.Errorf("analyze %s: %w", path, err)
		}
		return graph, source, nil
	}
	defer s.Close()

	hash := store.Hash(source)
	if graph, err := s.Get(path, hash); err == nil {
		return graph, source, nil
	} else if !errors.Is(err, store.ErrNotFound) && verbose {
		log.Printf("cache read failed: %v", err)
	}

	graph, err := analyzer.Parse(source)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	if err := s.Put(path, hash, graph); err != nil && verbose {
		log.Printf("cache write failed: %v", err)
	}
	return graph, source, nil
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// baseOptions seeds render options from the flow config section.
func baseOptions(cfg *config.Config) flowgraph.RenderOptions {
	return flowgraph.RenderOptions{
		IgnoredServices:  cfg.Flow.IgnoredServices,
		IgnoredVariables: cfg.Flow.IgnoredVariables,
		CollapseDetails:  cfg.Flow.CollapseDetails,
		ShowSourceRef:    cfg.Flow.ShowSourceRefs,
	}
}
