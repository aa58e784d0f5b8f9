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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyKey indicates the record key is empty.
	ErrEmptyKey = errors.New("record key cannot be empty")

	// ErrEmptyPayload indicates the record payload is empty.
	ErrEmptyPayload = errors.New("record payload cannot be empty")

	// ErrInvalidPayload indicates the record payload is not a JSON object.
	ErrInvalidPayload = errors.New("record payload must be a JSON object")

	// ErrInvalidNews indicates a News item failed validation.
	ErrInvalidNews = errors.New("invalid news")

	// ErrEmptyTitle indicates the news title is empty.
	ErrEmptyTitle = errors.New("news title cannot be empty")

	// ErrMissingNewsID indicates the news item has no ID.
	ErrMissingNewsID = errors.New("news id cannot be nil")
)
