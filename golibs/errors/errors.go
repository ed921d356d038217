// Copyright 2023 The acquirecloud Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// General purpose sentinels. Packages should wrap one of these with
// fmt.Errorf("...: %w", ErrXxx) instead of declaring their own error type.
var (
	ErrInvalid       = errors.New("invalid value")
	ErrNotExist      = errors.New("not found")
	ErrExist         = errors.New("already exists")
	ErrExhausted     = errors.New("resource exhausted")
	ErrClosed        = errors.New("closed")
	ErrConflict      = errors.New("conflict")
	ErrNotAuthorized = errors.New("not authorized")
	ErrCommunication = errors.New("communication error")
	ErrCanceled      = errors.New("canceled")
	ErrDataLoss      = errors.New("data loss")
	ErrUnimplemented = errors.New("not implemented")
	ErrInternal      = errors.New("internal error")
)

// Is reports whether err is, or wraps, target. Unlike the standard
// errors.Is, it also recognizes a gRPC status error carrying the code that
// FromGRPCError would map back to target, so a caller on either side of an
// RPC boundary can test for the same sentinel.
func Is(err, target error) bool {
	if err == nil || target == nil {
		return err == target
	}
	if errors.Is(err, target) {
		return true
	}
	return FromGRPCError(err) == target
}

// jsonErrorMarker delimits a JSON-encoded payload embedded in an error
// string by EmbedObject. It is unlikely to occur in a normal error message.
const jsonErrorMarker = "\x00obj:"

type embeddedError struct {
	msg    string
	target error
}

func (e *embeddedError) Error() string { return e.msg }
func (e *embeddedError) Unwrap() error { return e.target }

// EmbedObject attaches obj (marshaled as JSON) to target, returning a new
// error whose message still satisfies errors.Is(result, target) and whose
// payload can be recovered with ExtractObject. It panics if target is nil,
// obj is nil, or target already carries an embedded object - embedding is
// meant to happen once, at the point a sentinel is first returned.
func EmbedObject(obj any, target error) error {
	if target == nil {
		panic("errors.EmbedObject: target must not be nil")
	}
	if obj == nil {
		panic("errors.EmbedObject: obj must not be nil")
	}
	if strings.Contains(target.Error(), jsonErrorMarker) {
		panic("errors.EmbedObject: target already has an embedded object")
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		panic(fmt.Sprintf("errors.EmbedObject: could not marshal object: %v", err))
	}
	return &embeddedError{
		msg:    target.Error() + jsonErrorMarker + string(buf) + jsonErrorMarker,
		target: target,
	}
}

// ExtractObject recovers the payload EmbedObject attached to err into out,
// returning true on success. It returns false if err is nil, carries no
// embedded object, or the payload doesn't unmarshal into out.
func ExtractObject(err error, out any) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	start := strings.Index(s, jsonErrorMarker)
	if start < 0 {
		return false
	}
	rest := s[start+len(jsonErrorMarker):]
	end := strings.Index(rest, jsonErrorMarker)
	if end < 0 {
		return false
	}
	return json.Unmarshal([]byte(rest[:end]), out) == nil
}
