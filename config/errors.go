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

package config

import "errors"

var (
	// ErrReadConfig is returned when a config file exists but cannot be read.
	ErrReadConfig = errors.New("failed to read config file")

	// ErrDecodeConfig is returned when config values do not fit AppConfig.
	ErrDecodeConfig = errors.New("failed to decode config")

	// ErrInvalidConfig is returned when the loaded config fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)
