// Package config holds the tunable parameters shared by the entropy and
// divergence estimators.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/RyanBlaney/sonido-entropy/algorithms/estimators"
	"github.com/RyanBlaney/sonido-entropy/algorithms/spatial"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// maxConfigBytes bounds the size of a configuration file.
const maxConfigBytes = 1 << 20

var validate = validator.New()

// EstimatorConfig configures a nearest-neighbor estimator.
type EstimatorConfig struct {
	// KNearest is the neighbor order used in the joint space.
	KNearest int `json:"k_nearest" yaml:"k_nearest" validate:"gte=1"`

	// MaxRelativeError allows approximate neighbor searches: reported
	// distances are at most (1+MaxRelativeError) times the exact ones.
	MaxRelativeError float64 `json:"max_relative_error" yaml:"max_relative_error" validate:"gte=0"`

	// Workers bounds the goroutines used per estimate; 0 means GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0"`

	// Norm names the metric for entropy and divergence estimates.
	// Combination estimates always use the maximum norm.
	Norm string `json:"norm" yaml:"norm" validate:"oneof=euclidean maximum manhattan"`

	// LocalEstimator names the local estimator of combination estimates.
	LocalEstimator string `json:"local_estimator" yaml:"local_estimator" validate:"oneof=log digamma digamma_density"`

	// TimeWindowRadius is the half width of the windows of temporal estimates.
	TimeWindowRadius int `json:"time_window_radius" yaml:"time_window_radius" validate:"gte=0"`
}

// DefaultEstimatorConfig returns the defaults: one nearest neighbor, exact
// searches, Euclidean norm and the digamma local estimator.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		KNearest:         1,
		MaxRelativeError: 0,
		Workers:          0,
		Norm:             spatial.Euclidean.String(),
		LocalEstimator:   estimators.NameDigamma,
		TimeWindowRadius: 0,
	}
}

// LoadEstimatorConfig reads a YAML (or JSON) file over the defaults, applies
// ENTROPY_* environment overrides and validates the result. An empty path
// skips the file.
func LoadEstimatorConfig(path string) (EstimatorConfig, error) {
	cfg := DefaultEstimatorConfig()

	if path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := loadConfigFromEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *EstimatorConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxConfigBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxConfigBytes {
		return fmt.Errorf("%s exceeds %d bytes", path, maxConfigBytes)
	}
	return Parse(data, cfg)
}

// Parse decodes YAML (JSON being a subset) into cfg. Unknown keys are
// rejected; keys absent from data keep their current value.
func Parse(data []byte, cfg *EstimatorConfig) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func loadConfigFromEnv(cfg *EstimatorConfig) error {
	ints := map[string]*int{
		"ENTROPY_K_NEAREST":          &cfg.KNearest,
		"ENTROPY_WORKERS":            &cfg.Workers,
		"ENTROPY_TIME_WINDOW_RADIUS": &cfg.TimeWindowRadius,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = i
		}
	}

	if v := os.Getenv("ENTROPY_MAX_RELATIVE_ERROR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ENTROPY_MAX_RELATIVE_ERROR: %w", err)
		}
		cfg.MaxRelativeError = f
	}

	if v := os.Getenv("ENTROPY_NORM"); v != "" {
		cfg.Norm = v
	}
	if v := os.Getenv("ENTROPY_LOCAL_ESTIMATOR"); v != "" {
		cfg.LocalEstimator = v
	}
	return nil
}

// Validate checks every field against its documented range.
func (c EstimatorConfig) Validate() error {
	return validate.Struct(c)
}

// NormType returns the configured norm.
func (c EstimatorConfig) NormType() (spatial.Norm, error) {
	return spatial.ParseNorm(c.Norm)
}

// Local returns the configured local estimator.
func (c EstimatorConfig) Local() (estimators.LocalEstimator, error) {
	return estimators.ParseLocalEstimator(c.LocalEstimator)
}
