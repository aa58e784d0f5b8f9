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

package search

import "errors"

var (
	// ErrClientRequired is returned when a search client is not provided.
	ErrClientRequired = errors.New("search client required")

	// ErrIndexRequired is returned when no index name is provided.
	ErrIndexRequired = errors.New("index required")

	// ErrEmptyQuery is returned when the field or query text is empty.
	ErrEmptyQuery = errors.New("field and query text are required")
)
