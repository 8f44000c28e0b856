package wrapper

import (
	"fmt"
	"strings"
)

// PDFLibraryFactory creates PDF library instances with unified interface
type PDFLibraryFactory struct {
	config FactoryConfig
}

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PrimaryLibrary is tried first for whole-document text extraction
	PrimaryLibrary LibraryType `json:"primary_library"`

	// FallbackLibrary is used when the primary cannot open a document
	FallbackLibrary LibraryType `json:"fallback_library"`
}

// DefaultFactoryConfig returns ledongthuc as primary and pdfcpu as fallback
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		PrimaryLibrary:  LibraryLedongthuc,
		FallbackLibrary: LibraryPDFCPU,
	}
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return &PDFLibraryFactory{config: DefaultFactoryConfig()}
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig) *PDFLibraryFactory {
	return &PDFLibraryFactory{config: config}
}

// Create instantiates a PDF library of the specified type
func (f *PDFLibraryFactory) Create(libType LibraryType) (PDFLibrary, error) {
	switch libType {
	case LibraryPDFCPU:
		return NewPDFCPULibrary(), nil
	case LibraryLedongthuc:
		return NewLedongthucLibrary(), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("%w: %s", ErrUnsupportedLibrary, libType),
		}
	}
}

// Primary returns the configured primary library
func (f *PDFLibraryFactory) Primary() (PDFLibrary, error) {
	return f.Create(f.config.PrimaryLibrary)
}

// Fallback returns the configured fallback library
func (f *PDFLibraryFactory) Fallback() (PDFLibrary, error) {
	return f.Create(f.config.FallbackLibrary)
}

// GetConfig returns the factory configuration
func (f *PDFLibraryFactory) GetConfig() FactoryConfig {
	return f.config
}

// GetSupportedLibraries returns all libraries the factory can create
func (f *PDFLibraryFactory) GetSupportedLibraries() []LibraryType {
	return []LibraryType{LibraryLedongthuc, LibraryPDFCPU}
}

// ValidateLibraryType checks if a library type is supported
func (f *PDFLibraryFactory) ValidateLibraryType(libType LibraryType) error {
	for _, supported := range f.GetSupportedLibraries() {
		if supported == libType {
			return nil
		}
	}
	return &WrapperError{
		Library: libType,
		Op:      "validate",
		Err:     fmt.Errorf("%w: %s", ErrUnsupportedLibrary, libType),
	}
}

// ParseLibraryType converts a config string into a LibraryType
func ParseLibraryType(s string) (LibraryType, error) {
	libType := LibraryType(strings.ToLower(strings.TrimSpace(s)))
	if err := NewPDFLibraryFactory().ValidateLibraryType(libType); err != nil {
		return "", err
	}
	return libType, nil
}
