package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kase1111-hash/Mechanic-Scope-sub001/internal/catalog"
)

// Importer coordinates the import pipeline: discover -> parse -> store.
// Parsing fans out across workers; all writes go through the catalog in
// one batch per document so a bad file never half-imports.
type Importer struct {
	catalog catalog.Repository
	workers int
}

// Config contains configuration for an import run.
type Config struct {
	Workers int // Number of concurrent parse workers (default: runtime.NumCPU())
}

// Statistics summarizes one import run.
type Statistics struct {
	FilesImported    int
	FilesFailed      int
	PartsImported    int
	FitmentsImported int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Importer writing into the given catalog.
func New(cat catalog.Repository) *Importer {
	return &Importer{
		catalog: cat,
		workers: runtime.NumCPU(),
	}
}

// ImportDir imports every catalog document under rootPath. Files that
// fail to parse or validate are reported in the statistics and skipped;
// a file that validates is written atomically.
func (imp *Importer) ImportDir(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{Workers: runtime.NumCPU()}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	imp.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	files, err := discoverFiles(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover documents: %w", err)
	}

	if err := imp.importFiles(ctx, files, stats); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// ImportFile imports a single catalog document.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	doc, err := loadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := imp.storeDocument(ctx, doc, stats); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	stats.FilesImported = 1
	stats.Duration = time.Since(startTime)
	return stats, nil
}

// discoverFiles finds catalog documents under rootPath. Hidden
// directories are skipped.
func discoverFiles(rootPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != rootPath {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// importFiles parses documents concurrently, then writes them one at a
// time. The catalog store serializes writers anyway, so fanning out the
// store phase would only add lock contention.
func (imp *Importer) importFiles(ctx context.Context, files []string, stats *Statistics) error {
	type parsed struct {
		path string
		doc  *Document
	}

	var (
		failed int32
		mu     sync.Mutex
		docs   = make([]parsed, len(files))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.workers)

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			doc, err := loadDocument(path)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}
			docs[i] = parsed{path: path, doc: doc}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range docs {
		if p.doc == nil {
			continue
		}
		if err := imp.storeDocument(ctx, p.doc, stats); err != nil {
			failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", p.path, err))
			continue
		}
		stats.FilesImported++
	}

	stats.FilesFailed = int(failed)
	return nil
}

// storeDocument writes one validated document as a single batch: parts
// and the fitments referencing them commit together or not at all.
func (imp *Importer) storeDocument(ctx context.Context, doc *Document, stats *Statistics) error {
	parts := make([]*catalog.Part, len(doc.Parts))
	for i := range doc.Parts {
		parts[i] = doc.Parts[i].Part()
	}
	fitments := make([]catalog.Fitment, len(doc.Fitments))
	for i, f := range doc.Fitments {
		fitments[i] = catalog.Fitment{EngineID: f.EngineID, PartID: f.PartID, Position: f.Position}
	}

	if err := imp.catalog.BulkImport(ctx, parts, fitments); err != nil {
		return fmt.Errorf("failed to import document: %w", err)
	}
	stats.PartsImported += len(parts)
	stats.FitmentsImported += len(fitments)
	return nil
}
