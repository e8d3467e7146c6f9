package imports

import (
	"errors"
	"fmt"
	"log"
	"os"
)

var (
	// ErrUnreadableFile indicates the file could not be read.
	ErrUnreadableFile = errors.New("unreadable file")

	// ErrMalformedSource indicates the file is not valid Python.
	ErrMalformedSource = errors.New("malformed source")

	// ErrUnexpected indicates any other failure while parsing or walking the tree.
	ErrUnexpected = errors.New("unexpected analysis failure")
)

// Result is the outcome of analyzing one file.
// Names is never nil; on failure it is empty and Err wraps one of
// ErrUnreadableFile, ErrMalformedSource or ErrUnexpected.
type Result struct {
	Path  string
	Names NameSet
	Size  int64
	Err   error
}

// Extractor determines which top-level packages a Python file imports,
// without executing it. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	logger *log.Logger
}

// NewExtractor creates an Extractor that writes diagnostics to logger.
// A nil logger means the standard logger.
func NewExtractor(logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{logger: logger}
}

var defaultExtractor = NewExtractor(nil)

// ExtractTopLevelImports is ExtractTopLevelImports on an Extractor logging to the standard logger.
func ExtractTopLevelImports(path string) NameSet {
	return defaultExtractor.ExtractTopLevelImports(path)
}

// ExtractTopLevelImports returns the distinct top-level module names imported by
// the file at path. An unreadable or unparsable file yields an empty set and a
// logged diagnostic; no failure is ever returned to the caller.
func (e *Extractor) ExtractTopLevelImports(path string) NameSet {
	return e.Analyze(path).Names
}

// Analyze runs the extraction and also reports why it failed, if it did.
// Failures are logged exactly once.
func (e *Extractor) Analyze(path string) (result Result) {
	result = Result{Path: path, Names: make(NameSet)}

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrUnreadableFile, err)
		e.logger.Printf("Warning: failed to read %s: %v\n", path, err)
		return result
	}
	result.Size = int64(len(raw))

	defer func() {
		if r := recover(); r != nil {
			result.Names = make(NameSet)
			result.Err = fmt.Errorf("%w: %v", ErrUnexpected, r)
			e.logger.Printf("Warning: failed to analyze %s: %v\n", path, r)
		}
	}()

	stmts, err := ParseStatements(DecodeSource(raw))
	if err != nil {
		var synErr *SyntaxError
		if errors.As(err, &synErr) {
			result.Err = fmt.Errorf("%w: %w", ErrMalformedSource, err)
			e.logger.Printf("Warning: skipping %s: syntax error: %v\n", path, err)
		} else {
			result.Err = fmt.Errorf("%w: %w", ErrUnexpected, err)
			e.logger.Printf("Warning: failed to analyze %s: %v\n", path, err)
		}
		return result
	}

	result.Names = TopLevelNames(stmts)
	return result
}

// FailureClass names the failure category of err for reports and metrics:
// "unreadable", "malformed", "unexpected", or "" for nil.
func FailureClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnreadableFile):
		return "unreadable"
	case errors.Is(err, ErrMalformedSource):
		return "malformed"
	default:
		return "unexpected"
	}
}
