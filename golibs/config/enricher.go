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
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/solarisdb/blockdelta/golibs/errors"
	"github.com/solarisdb/blockdelta/golibs/logging"
)

type (
	// Enricher keeps a value of type T and lets it be built up in layers: a
	// default, then a JSON or YAML file, then environment variables. Only
	// exported fields are addressable; a field's json tag (if any) is an
	// accepted alias for its name, case-insensitively, the same convention
	// encoding/json itself uses.
	Enricher[T any] interface {
		// LoadFromFile loads fields from a JSON or YAML file, chosen by the
		// file extension (.json or .yaml/.yml). An empty fileName is a no-op.
		LoadFromFile(fileName string) error

		// LoadFromJSONFile loads fields from a JSON file. An empty
		// jsonFileName is a no-op.
		LoadFromJSONFile(jsonFileName string) error

		// LoadFromYAMLFile loads fields from a YAML file. An empty
		// yamlFileName is a no-op.
		LoadFromYAMLFile(yamlFileName string) error

		// ApplyEnvVariables scans the process environment for variables
		// starting with prefix+sep and assigns them to the matching field,
		// addressed dot-path style with sep as the separator. See
		// ApplyKeyValues for the exact matching rules.
		ApplyEnvVariables(prefix, sep string) error

		// ApplyKeyValues applies a map of key/value pairs using the same
		// addressing rules as ApplyEnvVariables, without reading the
		// environment. Useful for secrets pulled from somewhere else.
		ApplyKeyValues(prefix, sep string, keyValues map[string]string)

		// Value returns the enricher's current value.
		Value() T
	}

	enricher[T any] struct {
		log logging.Logger
		val T
	}
)

// NewEnricher constructs an Enricher seeded with val, which must be a
// struct (typically one populated with the package's defaults already).
func NewEnricher[T any](val T) Enricher[T] {
	tp := reflect.TypeOf(val)
	if tp.Kind() != reflect.Struct {
		panic(fmt.Sprintf("config.NewEnricher: type %s is not a struct", tp.Kind()))
	}
	return &enricher[T]{val: val, log: logging.NewLogger("config.enricher." + tp.Name())}
}

func (e *enricher[T]) LoadFromFile(fileName string) error {
	if fileName == "" {
		return nil
	}
	fn := strings.ToLower(strings.TrimSpace(fileName))
	switch {
	case strings.HasSuffix(fn, ".yaml"), strings.HasSuffix(fn, ".yml"):
		return e.LoadFromYAMLFile(fileName)
	case strings.HasSuffix(fn, ".json"):
		return e.LoadFromJSONFile(fileName)
	default:
		return fmt.Errorf("config: cannot recognize file format of %s, expecting .json or .yaml: %w", fileName, errors.ErrInvalid)
	}
}

func (e *enricher[T]) LoadFromJSONFile(jsonFileName string) error {
	if jsonFileName == "" {
		return nil
	}
	e.log.Infof("reading JSON config from %s", jsonFileName)
	buf, err := os.ReadFile(jsonFileName)
	if err != nil {
		return fmt.Errorf("could not read file %s: %w", jsonFileName, err)
	}
	if err := json.Unmarshal(buf, &e.val); err != nil {
		return fmt.Errorf("could not unmarshal json file %s: %w", jsonFileName, err)
	}
	return nil
}

func (e *enricher[T]) LoadFromYAMLFile(yamlFileName string) error {
	if yamlFileName == "" {
		return nil
	}
	e.log.Infof("reading YAML config from %s", yamlFileName)
	buf, err := os.ReadFile(yamlFileName)
	if err != nil {
		return fmt.Errorf("could not read file %s: %w", yamlFileName, err)
	}
	if err := yaml.Unmarshal(buf, &e.val); err != nil {
		return fmt.Errorf("could not unmarshal yaml file %s: %w", yamlFileName, err)
	}
	return nil
}

func (e *enricher[T]) ApplyEnvVariables(prefix, sep string) error {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[strings.ToLower(parts[0])] = parts[1]
	}
	e.ApplyKeyValues(prefix, sep, env)
	return nil
}

func (e *enricher[T]) ApplyKeyValues(prefix, sep string, keyValues map[string]string) {
	envPfx := envPrefix(prefix, sep)
	for key, value := range keyValues {
		upperKey := strings.ToUpper(key)
		if !strings.HasPrefix(upperKey, envPfx) {
			continue
		}
		if assignField(&e.val, upperKey[len(envPfx):], strings.ToUpper(sep), value) {
			e.log.Debugf("config: applied %s", upperKey)
		}
	}
}

func (e *enricher[T]) Value() T {
	return e.val
}

func envPrefix(prefix, sep string) string {
	if prefix == "" {
		return ""
	}
	return strings.ToUpper(prefix) + strings.ToUpper(sep)
}

// assignField walks s (a pointer to a struct) along a dot-path addressed by
// field name or json-tag alias, case-insensitively, and assigns v (a JSON
// scalar, or a JSON document for composite fields) to the field at the end
// of the path. It returns false if no field matched.
func assignField(s any, path, sep, v string) bool {
	tp := reflect.TypeOf(s)
	if tp.Kind() != reflect.Ptr || tp.Elem().Kind() != reflect.Struct {
		return false
	}
	val := reflect.ValueOf(s).Elem()

	name, rest := path, ""
	if idx := strings.Index(path, sep); idx >= 0 {
		name, rest = path[:idx], path[idx+len(sep):]
	}
	if name == "" {
		return false
	}

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := tp.Elem().Field(i)
		if name != strings.ToUpper(fieldType.Name) && name != jsonAlias(fieldType.Tag) {
			continue
		}
		if rest == "" {
			if !field.CanSet() {
				return false
			}
			return setScalar(field, v) == nil
		}
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			return assignField(field.Interface(), rest, sep, v)
		}
		return assignField(field.Addr().Interface(), rest, sep, v)
	}
	return false
}

func setScalar(field reflect.Value, s string) error {
	if s == "" {
		return nil
	}
	target := reflect.New(field.Type())
	if field.Kind() == reflect.String && !isQuotedJSON(s) {
		s = strconv.Quote(s)
	}
	if err := json.Unmarshal([]byte(s), target.Interface()); err != nil {
		return err
	}
	field.Set(target.Elem())
	return nil
}

func isQuotedJSON(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func jsonAlias(tag reflect.StructTag) string {
	name, _, _ := strings.Cut(tag.Get("json"), ",")
	return strings.ToUpper(name)
}
