// Copyright 2024 The Cockroach Authors
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

package openaddr

import "errors"

var (
	// ErrInvalidArgument is wrapped by the error New returns when an option
	// is out of range.
	ErrInvalidArgument = errors.New("openaddr: invalid argument")

	// ErrCapacityExhausted is wrapped by the error Put returns when the map
	// would have to grow beyond its maximum capacity.
	ErrCapacityExhausted = errors.New("openaddr: maximum capacity reached")
)
