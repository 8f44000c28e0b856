package mcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/bizharvest/internal/analysis"
	"github.com/a3tai/bizharvest/internal/config"
	"github.com/a3tai/bizharvest/internal/descriptions"
	"github.com/a3tai/bizharvest/internal/harvest"
	"github.com/a3tai/bizharvest/internal/heuristics"
	"github.com/a3tai/bizharvest/internal/links"
	"github.com/a3tai/bizharvest/internal/pdf"
	"github.com/a3tai/bizharvest/internal/report"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	harvester  *harvest.Harvester
	links      *links.Extractor
	mcpServer  *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, harvester *harvest.Harvester) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if harvester == nil {
		return nil, fmt.Errorf("harvester cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		harvester:  harvester,
		links:      links.NewExtractor(log.Default()),
		mcpServer:  mcpServer,
	}

	s.registerTools()

	return s, nil
}

func formatOption() mcp.ToolOption {
	return mcp.WithString("format",
		mcp.Description("Output format: json (default), yaml or markdown"),
	)
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pathArg := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the PDF file, absolute or relative to the document directory"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractLinks,
		mcp.WithDescription(descriptions.ExtractLinksDescription),
		pathArg,
		formatOption(),
	), s.handleExtractLinks)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolAnalyzeFile,
		mcp.WithDescription(descriptions.AnalyzeFileDescription),
		pathArg,
		formatOption(),
	), s.handleAnalyzeFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolAnalyzeURL,
		mcp.WithDescription(descriptions.AnalyzeURLDescription),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("http or https URL of the document"),
		),
		formatOption(),
	), s.handleAnalyzeURL)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolHarvestFile,
		mcp.WithDescription(descriptions.HarvestFileDescription),
		pathArg,
		mcp.WithBoolean("strict",
			mcp.Description("Only follow links that look like PDF documents"),
		),
		formatOption(),
	), s.handleHarvestFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolClassifyURL,
		mcp.WithDescription(descriptions.ClassifyURLDescription),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL to classify"),
		),
		formatOption(),
	), s.handleClassifyURL)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolListFiles,
		mcp.WithDescription(descriptions.ListFilesDescription),
	), s.handleListFiles)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
		formatOption(),
	), s.handleServerInfo)
}

func (s *Server) handleExtractLinks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := s.pdfService.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.render(request, s.links.ExtractAll(data))
}

func (s *Server) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.ExtractFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.render(request, analysis.Analyze(result))
}

func (s *Server) handleAnalyzeURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !links.IsValidURL(rawURL) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid URL: %s (must be an absolute http or https URL)", rawURL)), nil
	}

	outcome := s.harvester.Process(ctx, rawURL)
	if outcome.Analysis == nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s: %s", rawURL, outcome.Status, outcome.Reason)), nil
	}

	return s.render(request, outcome.Analysis)
}

func (s *Server) handleHarvestFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	strict := request.GetBool("strict", s.config.StrictMode)

	data, err := s.pdfService.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.render(request, s.harvester.WithStrict(strict).HarvestPDF(ctx, data))
}

func (s *Server) handleClassifyURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.render(request, heuristics.Classify(rawURL))
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.pdfService.ListFiles()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d PDF file(s) in %s\n", len(files), s.pdfService.Directory())
	for _, f := range files {
		fmt.Fprintf(&b, "\n%s (%d bytes, modified %s)", f.Name, f.Size, f.ModTime)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// render formats v in the requested format, defaulting to JSON
func (s *Server) render(request mcp.CallToolRequest, v any) (*mcp.CallToolResult, error) {
	format := strings.ToLower(request.GetString("format", report.FormatJSON))
	text, err := report.Render(format, v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		log.Printf("Starting MCP server in stdio mode")
		log.Printf("Document directory: %s", s.config.DocumentDirectory)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.Default())
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
