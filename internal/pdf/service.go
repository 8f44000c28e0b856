package pdf

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/bizharvest/internal/pdf/security"
	"github.com/a3tai/bizharvest/internal/pdf/wrapper"
)

// Service handles PDF file operations for the document directory
type Service struct {
	maxFileSize   int64
	validator     *Validator
	extractor     *TextExtractor
	pathValidator *security.PathValidator
}

// NewService creates a new PDF service with all components
func NewService(maxFileSize int64, configuredDirectory string, factory *wrapper.PDFLibraryFactory,
	logger *log.Logger,
) (*Service, error) {
	pathValidator, err := security.NewPathValidator(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	extractor, err := NewTextExtractor(factory, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		maxFileSize:   maxFileSize,
		validator:     NewValidator(maxFileSize),
		extractor:     extractor,
		pathValidator: pathValidator,
	}, nil
}

// Extractor returns the shared text extractor
func (s *Service) Extractor() *TextExtractor {
	return s.extractor
}

// ReadFile resolves path inside the document directory and returns its bytes
func (s *Service) ReadFile(path string) ([]byte, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ReadFile(resolved)
}

// ExtractFile reads a PDF from the document directory and extracts its text
func (s *Service) ExtractFile(path string) (*TextResult, error) {
	data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(data)
}

// ListFiles returns the PDF files directly inside the document directory,
// sorted by name
func (s *Service) ListFiles() ([]FileInfo, error) {
	dir := s.pathValidator.Directory()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().Format(time.RFC3339),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Directory returns the configured document directory
func (s *Service) Directory() string {
	return s.pathValidator.Directory()
}

// GetMaxFileSize returns the configured maximum file size
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
