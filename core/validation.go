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


package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - Key must not be empty
//   - Payload must not be empty
//   - Payload must be a JSON object (bulk APIs index objects, not scalars)
func ValidateRecord(record Record) error {
	if record.key == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyKey)
	}

	if len(record.payload) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyPayload)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(record.payload, &obj); err != nil || obj == nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrInvalidPayload)
	}

	return nil
}

// ValidateNews validates a News item.
//
// Validation rules:
//   - NewsID must be set
//   - NewsTitle must not be empty
//
// NewsURL is optional.
func ValidateNews(news *News) error {
	if news == nil {
		return fmt.Errorf("%w: news is nil", ErrInvalidNews)
	}

	if news.NewsID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrInvalidNews, ErrMissingNewsID)
	}

	if news.NewsTitle == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNews, ErrEmptyTitle)
	}

	return nil
}
