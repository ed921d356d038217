// Copyright 2023 The acquirecloud Authors
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
/*
Package errors contains a small set of general-purpose sentinel errors that
any package in this module can return, the same way the object-store core
does for its three failure kinds (invalid input, exhaustion, size limit).

It also contains gRPC helper functions that map the sentinels to gRPC status
codes and back, plus EmbedObject/ExtractObject for attaching a typed payload
(e.g. an offending offset) to a sentinel error without declaring a bespoke
error type per call site.
*/
package errors
