package server

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dejo1307/renamespacer/internal/config"
	"github.com/dejo1307/renamespacer/internal/engine"
	"github.com/dejo1307/renamespacer/internal/index"
	"github.com/dejo1307/renamespacer/internal/parser"
)

// maxLookupResults bounds the size of a lookup_declaration answer.
const maxLookupResults = 100

// Server exposes the renamespacer over MCP.
type Server struct {
	mcp *mcp.Server
	cfg *config.Config
	log *zap.Logger

	mu    sync.Mutex // serializes runs
	index *index.Index
}

// New creates a new MCP server. Runs start from a copy of cfg.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:   cfg,
		log:   log.Named("server"),
		index: index.New(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "renamespacer",
		Version: "0.1.0",
	}, nil)
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// renamespaceArgs are the arguments for the renamespace tool.
type renamespaceArgs struct {
	Project string   `json:"project,omitempty" jsonschema:"Directory of the project to renamespace. Defaults to the configured project."`
	Clients []string `json:"clients,omitempty" jsonschema:"Directories of the projects that use it"`
	Exclude []string `json:"exclude,omitempty" jsonschema:"File names to leave alone"`
	DryRun  *bool    `json:"dry_run,omitempty" jsonschema:"Leave the rewritten files staged next to the originals (default true)"`
	Diff    bool     `json:"diff,omitempty" jsonschema:"Include a unified diff of every changed file"`
}

// parseFileArgs are the arguments for the parse_file tool.
type parseFileArgs struct {
	Path string `json:"path" jsonschema:"Path of the C++ file to parse"`
}

// lookupArgs are the arguments for the lookup_declaration tool.
type lookupArgs struct {
	Name      string `json:"name,omitempty" jsonschema:"Declaration name, substring match"`
	Namespace string `json:"namespace,omitempty" jsonschema:"Enclosing namespace, exact match"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "renamespace",
		Description: "Move the files of a C++ project into per-file namespaces and fix the using-declarations of the project and its clients. Dry run by default.",
	}, s.handleRenamespace)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "parse_file",
		Description: "Parse a C++ file into its namespace tree and return an indented dump of the tree.",
	}, s.handleParseFile)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "lookup_declaration",
		Description: "Query the declaration index built by the last renamespace run. Returns matching declarations as JSON.",
	}, s.handleLookup)
}

func (s *Server) handleRenamespace(ctx context.Context, req *mcp.CallToolRequest, args renamespaceArgs) (*mcp.CallToolResult, any, error) {
	cfg := *s.cfg
	if args.Project != "" {
		cfg.Project = args.Project
	}
	if len(args.Clients) > 0 {
		cfg.Clients = args.Clients
	}
	if len(args.Exclude) > 0 {
		cfg.Exclude = args.Exclude
	}
	if args.DryRun != nil {
		cfg.DryRun = *args.DryRun
	}
	cfg.Output.Diff = args.Diff

	if cfg.Project == "" {
		return errorResult("project is required"), nil, nil
	}
	absProject, err := filepath.Abs(cfg.Project)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid project path: %v", err)), nil, nil
	}
	cfg.Project = absProject

	s.mu.Lock()
	defer s.mu.Unlock()

	eng, err := engine.New(&cfg, s.log)
	if err != nil {
		return errorResult(fmt.Sprintf("creating engine: %v", err)), nil, nil
	}
	report, err := eng.Run(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("renamespace failed: %v", err)), nil, nil
	}
	s.index = eng.Index()

	return textResult(summarize(report)), nil, nil
}

func (s *Server) handleParseFile(ctx context.Context, req *mcp.CallToolRequest, args parseFileArgs) (*mcp.CallToolResult, any, error) {
	if args.Path == "" {
		return errorResult("path is required"), nil, nil
	}
	t, err := parser.ParseFile(args.Path)
	if err != nil {
		return errorResult(fmt.Sprintf("parse failed: %v", err)), nil, nil
	}
	var sb strings.Builder
	if err := t.Dump(&sb); err != nil {
		return errorResult(fmt.Sprintf("dump failed: %v", err)), nil, nil
	}
	return textResult(sb.String()), nil, nil
}

func (s *Server) handleLookup(ctx context.Context, req *mcp.CallToolRequest, args lookupArgs) (*mcp.CallToolResult, any, error) {
	s.mu.Lock()
	idx := s.index
	s.mu.Unlock()

	if idx.Count() == 0 {
		return errorResult("No declarations indexed. Run renamespace first."), nil, nil
	}

	results := idx.Query(args.Name, args.Namespace)
	total := len(results)
	if total > maxLookupResults {
		results = results[:maxLookupResults]
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to marshal results: %v", err)), nil, nil
	}
	text := string(data)
	if total > maxLookupResults {
		text += fmt.Sprintf("\n\n... (showing %d of %d results, refine your query)", maxLookupResults, total)
	}
	return textResult(text), nil, nil
}

func summarize(r *engine.Report) string {
	var sb strings.Builder
	mode := "committed"
	if r.DryRun {
		mode = "dry run, rewritten files staged"
	}
	fmt.Fprintf(&sb, "Renamespaced %s (%s).\n\n", r.Project, mode)
	fmt.Fprintf(&sb, "- Declarations indexed: %d\n", r.Declarations)
	fmt.Fprintf(&sb, "- Files processed: %d\n", len(r.Files))
	fmt.Fprintf(&sb, "- Files changed: %d\n", r.ChangedCount())
	fmt.Fprintf(&sb, "- Duration: %s\n", r.Duration)

	for _, f := range r.Files {
		if !f.Changed {
			continue
		}
		fmt.Fprintf(&sb, "\n%s [%s]", f.Path, f.Pipeline)
		if f.Staged != "" {
			fmt.Fprintf(&sb, " -> %s", f.Staged)
		}
		sb.WriteString("\n")
		if f.Diff != "" {
			sb.WriteString("```diff\n")
			sb.WriteString(f.Diff)
			sb.WriteString("```\n")
		}
	}
	return sb.String()
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
