package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dejo1307/renamespacer/internal/config"
	"github.com/dejo1307/renamespacer/internal/diff"
	"github.com/dejo1307/renamespacer/internal/fixup"
	"github.com/dejo1307/renamespacer/internal/index"
	"github.com/dejo1307/renamespacer/internal/naming"
	"github.com/dejo1307/renamespacer/internal/parser"
	"github.com/dejo1307/renamespacer/internal/rewrite"
	"github.com/dejo1307/renamespacer/internal/tree"
)

// FileResult describes what happened to one file.
type FileResult struct {
	Path     string `json:"path"`
	Pipeline string `json:"pipeline"`         // header, body, test or client
	Changed  bool   `json:"changed"`          // Rewritten text differs from the original
	Staged   string `json:"staged,omitempty"` // Staged copy, left in place on dry runs
	Diff     string `json:"diff,omitempty"`
}

// Report holds the result of a run.
type Report struct {
	Project      string       `json:"project"`
	Clients      []string     `json:"clients,omitempty"`
	DryRun       bool         `json:"dry_run"`
	Declarations int          `json:"declarations"`
	Files        []FileResult `json:"files"`
	Duration     string       `json:"duration"`
}

// ChangedCount returns the number of files whose text changed.
func (r *Report) ChangedCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Changed {
			n++
		}
	}
	return n
}

// Engine orchestrates the renamespacing of a project and its clients.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	conv  naming.Convention
	index *index.Index
}

// sourceFile is a parsed file together with its original content.
type sourceFile struct {
	tree     *tree.Tree
	original []byte
}

// New creates an Engine for the given config. A nil logger discards logs.
func New(cfg *config.Config, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:   cfg,
		log:   log.Named("engine"),
		conv:  naming.Convention{Root: cfg.RootNamespace},
		index: index.New(),
	}, nil
}

// Config returns the engine config.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Index returns the declaration index of the last run.
func (e *Engine) Index() *index.Index {
	return e.index
}

// ParseFile parses a single file without rewriting it.
func (e *Engine) ParseFile(path string) (*tree.Tree, error) {
	return parser.ParseFile(path)
}

// BuildIndex parses the public headers of the project and indexes their
// exported declarations, without rewriting anything.
func (e *Engine) BuildIndex(ctx context.Context) (*index.Index, error) {
	if _, err := e.collectHeaders(ctx); err != nil {
		return nil, err
	}
	return e.index, nil
}

// Run renamespaces the project and fixes its clients. All the public headers
// of the project are indexed before any file is rewritten, because rewriting
// renames the namespaces that later using-declarations refer to.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	report := &Report{
		Project: e.cfg.Project,
		Clients: e.cfg.Clients,
		DryRun:  e.cfg.DryRun,
	}

	// 1. Parse and index the public headers
	headers, err := e.collectHeaders(ctx)
	if err != nil {
		return nil, err
	}
	report.Declarations = e.index.Count()

	// 2. Rewrite the public headers
	headerPipeline := fixup.HeaderPipeline(e.index, e.conv).SetVerify(e.cfg.Verify)
	for _, sf := range headers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.fixAndWrite(sf, headerPipeline, report); err != nil {
			return nil, err
		}
	}

	// 3. Rewrite the bodies and tests of the project
	bodies, err := e.listFiles(e.cfg.Project, naming.IsBody, "*.cpp", "*_body.hpp")
	if err != nil {
		return nil, err
	}
	bodyPipeline := fixup.BodyPipeline(e.index, e.conv).SetVerify(e.cfg.Verify)
	testPipeline := fixup.TestPipeline(e.index, e.conv).SetVerify(e.cfg.Verify)
	for _, path := range bodies {
		p := bodyPipeline
		if naming.IsTest(path) {
			p = testPipeline
		}
		if err := e.processFile(ctx, path, p, report); err != nil {
			return nil, err
		}
	}

	// 4. Fix the references in the clients
	for _, client := range e.cfg.Clients {
		files, err := e.listFiles(client, nil, "*.hpp", "*.cpp")
		if err != nil {
			return nil, err
		}
		log := e.log.With(zap.String("client", client))
		log.Info("fixing client", zap.Int("files", len(files)))
		for _, path := range files {
			p := fixup.ClientPipeline(e.index, e.conv, !naming.IsBody(path)).SetVerify(e.cfg.Verify)
			if err := e.processFile(ctx, path, p, report); err != nil {
				return nil, err
			}
		}
	}

	report.Duration = time.Since(start).String()
	e.log.Info("run complete",
		zap.Int("files", len(report.Files)),
		zap.Int("changed", report.ChangedCount()),
		zap.Int("declarations", report.Declarations),
		zap.Bool("dry_run", report.DryRun),
		zap.String("duration", report.Duration))
	return report, nil
}

// collectHeaders parses the public headers of the project and adds their
// exported declarations to a fresh index.
func (e *Engine) collectHeaders(ctx context.Context) ([]sourceFile, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	paths, err := e.listFiles(e.cfg.Project, func(path string) bool { return !naming.IsBody(path) }, "*.hpp")
	if err != nil {
		return nil, err
	}

	e.index = index.New()
	var headers []sourceFile
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sf, err := e.parse(path)
		if err != nil {
			return nil, err
		}
		entries := index.Collect(sf.tree)
		e.index.Add(entries...)
		e.log.Debug("indexed header", zap.String("file", path), zap.Int("declarations", len(entries)))
		headers = append(headers, sf)
	}
	e.log.Info("indexed project",
		zap.String("project", e.cfg.Project),
		zap.Int("headers", len(headers)),
		zap.Int("declarations", e.index.Count()))

	if e.cfg.Output.IndexPath != "" {
		if err := e.index.WriteJSONLFile(e.cfg.Output.IndexPath); err != nil {
			return nil, fmt.Errorf("writing index: %w", err)
		}
		e.log.Info("wrote index", zap.String("path", e.cfg.Output.IndexPath))
	}
	return headers, nil
}

// listFiles returns the sorted files of dir matching any of the patterns,
// skipping excluded names and, if keep is not nil, the files it rejects.
func (e *Engine) listFiles(dir string, keep func(string) bool, patterns ...string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, path := range matches {
			if seen[path] || e.cfg.IsExcluded(filepath.Base(path)) {
				continue
			}
			if keep != nil && !keep(path) {
				continue
			}
			seen[path] = true
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (e *Engine) parse(path string) (sourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sourceFile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := parser.Parse(bytes.NewReader(data), path)
	if err != nil {
		return sourceFile{}, fmt.Errorf("parsing: %w", err)
	}
	return sourceFile{tree: t, original: data}, nil
}

func (e *Engine) processFile(ctx context.Context, path string, p *fixup.Pipeline, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sf, err := e.parse(path)
	if err != nil {
		return err
	}
	return e.fixAndWrite(sf, p, report)
}

// fixAndWrite runs the pipeline over a parsed file and stages the result.
func (e *Engine) fixAndWrite(sf sourceFile, p *fixup.Pipeline, report *Report) error {
	path := sf.tree.Path
	if err := p.Run(sf.tree); err != nil {
		return fmt.Errorf("fixing %s: %w", path, err)
	}
	rendered, err := rewrite.Render(sf.tree)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	staged, err := rewrite.StageFile(path, e.cfg.StagingSuffix, rendered, e.cfg.DryRun)
	if err != nil {
		return err
	}

	result := FileResult{
		Path:     path,
		Pipeline: p.Name(),
		Changed:  !bytes.Equal(rendered, sf.original),
	}
	if e.cfg.DryRun {
		result.Staged = staged
	}
	if result.Changed && e.cfg.Output.Diff {
		result.Diff = diff.Unified(path, staged, string(sf.original), string(rendered))
	}
	report.Files = append(report.Files, result)

	e.log.Debug("rewrote file",
		zap.String("file", path),
		zap.String("pipeline", p.Name()),
		zap.Bool("changed", result.Changed))
	return nil
}
