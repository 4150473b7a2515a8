// Package config resolves the thresholds the design notes flag as
// hard-coded (MIN_ANCHOR, MAX_BOTTLENECK_SIZE, MIN_CHILD_KERNEL_EXCEPTION)
// into a validated, loadable struct, so a run no longer needs a rebuild to
// change them.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config tunes a pipeline run. Zero-value fields are never valid on their
// own — use Default() and override, or Load a YAML file, then Validate.
type Config struct {
	// MarkovOrder is the history length k the profile was collected with.
	MarkovOrder int `yaml:"markov_order" validate:"gte=1"`
	// MinAnchor is the low-frequency-loop hotness floor transforms and the
	// segmenter require a candidate to clear.
	MinAnchor uint64 `yaml:"min_anchor" validate:"gte=1"`
	// MaxBottleneckSize bounds the general-bottleneck subgraph search.
	MaxBottleneckSize int `yaml:"max_bottleneck_size" validate:"gte=1"`
	// MinChildKernelException exempts an outermost MLCycle with at least
	// this many child tasks from hierarchy-sanity revocation.
	MinChildKernelException int `yaml:"min_child_kernel_exception" validate:"gte=2"`
	// HotCodeThreshold is the property-6 hot-code sanity fraction.
	HotCodeThreshold float64 `yaml:"hot_code_threshold" validate:"gte=0,lte=1"`
	// ProbabilitySumEpsilon is the tolerance property 3 allows around 1.0.
	ProbabilitySumEpsilon float64 `yaml:"probability_sum_epsilon" validate:"gt=0,lt=1"`
	// SegmentationMode relaxes the probability-sum check in favor of the
	// conservation check, once the cycle segmenter starts running.
	SegmentationMode bool `yaml:"segmentation_mode"`
}

// Default returns the thresholds named in the design notes.
func Default() Config {
	return Config{
		MarkovOrder:             1,
		MinAnchor:               16,
		MaxBottleneckSize:       200,
		MinChildKernelException: 5,
		HotCodeThreshold:        0.95,
		ProbabilitySumEpsilon:   1e-3,
	}
}

var validate = validator.New()

// Validate reports the first struct-tag violation, if any.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads and validates a YAML config file at path. Fields absent from
// the file keep Default's values, since the returned Config starts there
// and is then overlaid by the decode.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
