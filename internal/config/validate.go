package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInclude indicates no include patterns were configured
	ErrEmptyInclude = errors.New("empty include patterns")

	// ErrInvalidWorkers indicates an out-of-range worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCache indicates invalid cache configuration
	ErrInvalidCache = errors.New("invalid cache settings")

	// ErrInvalidDuration indicates a negative or zero duration where one is required
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidRetention indicates an invalid scan retention count
	ErrInvalidRetention = errors.New("invalid retention")
)

// MaxWorkers bounds scan.workers.
const MaxWorkers = 256

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateScan(&cfg.Scan); err != nil {
		errs = append(errs, err)
	}

	if err := validateCache(&cfg.Cache); err != nil {
		errs = append(errs, err)
	}

	if err := validateStorage(&cfg.Storage); err != nil {
		errs = append(errs, err)
	}

	if err := validateWatch(&cfg.Watch); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	if len(cfg.Include) == 0 {
		return fmt.Errorf("%w: at least one include pattern required", ErrEmptyInclude)
	}
	for _, pattern := range cfg.Include {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("%w: include pattern cannot be blank", ErrEmptyInclude)
		}
	}
	// Ignore patterns may be empty.
	return nil
}

func validateScan(cfg *ScanConfig) error {
	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 1 and %d, got %d", ErrInvalidWorkers, MaxWorkers, cfg.Workers)
	}
	return nil
}

func validateCache(cfg *CacheConfig) error {
	if !cfg.Enabled {
		return nil
	}

	var errs []error

	if cfg.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_entries must be positive, got %d", ErrInvalidCache, cfg.MaxEntries))
	}

	if cfg.TTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: cache ttl must be positive, got %s", ErrInvalidDuration, cfg.TTL))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateStorage(cfg *StorageConfig) error {
	// Zero keeps every run.
	if cfg.KeepRuns < 0 {
		return fmt.Errorf("%w: keep_runs cannot be negative, got %d", ErrInvalidRetention, cfg.KeepRuns)
	}
	return nil
}

func validateWatch(cfg *WatchConfig) error {
	if cfg.Debounce <= 0 {
		return fmt.Errorf("%w: watch debounce must be positive, got %s", ErrInvalidDuration, cfg.Debounce)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// The result still matches every sentinel via errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return &validationError{errs: errs}
}

type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationError) Unwrap() []error {
	return e.errs
}
