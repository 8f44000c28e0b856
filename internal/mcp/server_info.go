package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/bizharvest/internal/descriptions"
	"github.com/a3tai/bizharvest/internal/pdf"
)

// ToolInfo names a tool and summarises what it does
type ToolInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// ServerInfo describes the running server and its limits
type ServerInfo struct {
	ServerName        string         `json:"server_name" yaml:"server_name"`
	Version           string         `json:"version" yaml:"version"`
	DocumentDirectory string         `json:"document_directory" yaml:"document_directory"`
	MaxFileSize       int64          `json:"max_file_size" yaml:"max_file_size"`
	Workers           int            `json:"workers" yaml:"workers"`
	MaxURLs           int            `json:"max_urls" yaml:"max_urls"`
	FetchTimeout      string         `json:"fetch_timeout" yaml:"fetch_timeout"`
	StrictMode        bool           `json:"strict_mode" yaml:"strict_mode"`
	TrustedDomains    []string       `json:"trusted_domains" yaml:"trusted_domains"`
	Libraries         []string       `json:"pdf_libraries" yaml:"pdf_libraries"`
	AvailableTools    []ToolInfo     `json:"available_tools" yaml:"available_tools"`
	DirectoryContents []pdf.FileInfo `json:"directory_contents" yaml:"directory_contents"`
}

// Info collects the server information. A directory that cannot be listed
// leaves DirectoryContents empty.
func (s *Server) Info() *ServerInfo {
	info := &ServerInfo{
		ServerName:        s.config.ServerName,
		Version:           s.config.Version,
		DocumentDirectory: s.pdfService.Directory(),
		MaxFileSize:       s.pdfService.GetMaxFileSize(),
		Workers:           s.config.Workers,
		MaxURLs:           s.config.MaxURLs,
		FetchTimeout:      s.config.FetchTimeout.String(),
		StrictMode:        s.config.StrictMode,
		TrustedDomains:    append([]string(nil), s.config.TrustedDomains...),
		Libraries:         []string{s.config.PrimaryLibrary, s.config.FallbackLibrary},
		DirectoryContents: []pdf.FileInfo{},
	}

	for _, name := range descriptions.GetAllToolNames() {
		info.AvailableTools = append(info.AvailableTools, ToolInfo{
			Name:        name,
			Description: descriptions.Summary(name),
		})
	}

	if files, err := s.pdfService.ListFiles(); err == nil {
		info.DirectoryContents = files
	}

	return info
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.render(request, s.Info())
}
