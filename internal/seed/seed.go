// Package seed loads todos from a YAML (or JSON) file and creates them
// through the repository.
package seed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/internal/todo"
	"github.com/gogotex/todo-service/pkg/logger"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const defaultWorkers = 4

// File is the layout of a seed file:
//
//	todos:
//	  - name: Buy milk
//	    name_ar: شراء الحليب
//	    description: 2L
type File struct {
	Todos []todo.Todo `yaml:"todos"`
}

// Result reports what a seed run did. Skipped holds records rejected by
// validation; a rerun skips everything already present.
type Result struct {
	Created []*todo.Todo
	Skipped []Skip
}

// Skip is one rejected seed entry. Index is its position in the input.
type Skip struct {
	Index int
	Name  string
	Err   error
}

// Load reads and parses a seed file.
func Load(path string) ([]todo.Todo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes seed file contents. JSON input is accepted as YAML.
func Parse(raw []byte) ([]todo.Todo, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	return f.Todos, nil
}

// Run creates items with up to workers concurrent calls. Validation
// failures are collected in Result.Skipped; any other error stops the run.
func Run(ctx context.Context, repo *todo.Repository, items []todo.Todo, workers int) (*Result, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	res := &Result{}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		i, item := i, items[i]
		g.Go(func() error {
			created, err := repo.Create(ctx, &item)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Created = append(res.Created, created)
			case repository.IsValidation(err):
				logger.Warnf("seed: skipping %q: %v", item.Name, err)
				res.Skipped = append(res.Skipped, Skip{Index: i, Name: item.Name, Err: err})
			default:
				return fmt.Errorf("seed: create %q: %w", item.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	logger.Infof("seed: created %d, skipped %d", len(res.Created), len(res.Skipped))
	return res, nil
}
