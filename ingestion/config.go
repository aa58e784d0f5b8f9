// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"fmt"
	"time"
)

// Config holds the tunables of a Pipeline.
type Config struct {
	// BatchSize is the maximum number of records per batch. Must be > 0.
	BatchSize int

	// MaxParallelism is the maximum number of batches submitted concurrently.
	// Must be > 0.
	MaxParallelism int

	// MaxRetries is the number of additional attempts after the first
	// failure of a batch. Must be >= 0.
	MaxRetries int

	// BackOffDelay is the fixed wait applied before every retry. Must be >= 0.
	BackOffDelay time.Duration

	// RefreshOnCompleted asks the destination to refresh once all batches
	// are terminal, when it implements storage.Refresher.
	RefreshOnCompleted bool
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:          100,
		MaxParallelism:     4,
		MaxRetries:         2,
		BackOffDelay:       15 * time.Second,
		RefreshOnCompleted: true,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.MaxParallelism <= 0 {
		return fmt.Errorf("%w: max parallelism must be positive, got %d", ErrInvalidConfig, c.MaxParallelism)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative, got %d", ErrInvalidConfig, c.MaxRetries)
	}
	if c.BackOffDelay < 0 {
		return fmt.Errorf("%w: back-off delay cannot be negative, got %s", ErrInvalidConfig, c.BackOffDelay)
	}
	return nil
}
