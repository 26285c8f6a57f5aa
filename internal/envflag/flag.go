// Copyright 2025 The CUE Authors
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

// Package envflag fills flag structs from comma-separated environment
// variables such as DEEPCODER_DEBUG=log=debug,logjson.
package envflag

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Init uses Parse with the contents of the given environment variable as input.
func Init[T any](flags *T, envVar string) error {
	if err := Parse(flags, os.Getenv(envVar)); err != nil {
		return fmt.Errorf("cannot parse %s: %w", envVar, err)
	}
	return nil
}

// Parse sets the fields of flags to their defaults and then to the
// values named in env.
//
// A field's default comes from its tag, as in `envflag:"default:info"`.
// A field tagged `envflag:"deprecated"` may only be set to its default.
//
// env is a comma-separated list of name=value pairs, where names are the
// lower-cased field names. A boolean name without a value means true.
// Booleans are parsed with [strconv.ParseBool], integers with
// [strconv.Atoi], durations with [time.ParseDuration]; strings are taken
// as-is.
func Parse[T any](flags *T, env string) error {
	fv := reflect.ValueOf(flags).Elem()
	ft := fv.Type()
	fields := make(map[string]field, ft.NumField())
	for i := range ft.NumField() {
		sf := ft.Field(i)
		f := field{index: i, name: strings.ToLower(sf.Name)}
		if tag, ok := sf.Tag.Lookup("envflag"); ok {
			for _, opt := range strings.Split(tag, ",") {
				key, rest, hasRest := strings.Cut(opt, ":")
				switch key {
				case "default":
					val, err := parseValue(f.name, sf.Type, rest)
					if err != nil {
						return err
					}
					fv.Field(i).Set(val)
				case "deprecated":
					if hasRest {
						return fmt.Errorf("cannot have a value for deprecated tag")
					}
					f.deprecated = true
				default:
					return fmt.Errorf("unknown envflag tag %q", opt)
				}
			}
		}
		fields[f.name] = f
	}

	var errs []error
	for _, elem := range strings.Split(env, ",") {
		if elem == "" {
			// Empty elements let variables be joined naively, as in
			// DEEPCODER_DEBUG=$DEEPCODER_DEBUG,logjson.
			continue
		}
		name, str, hasValue := strings.Cut(elem, "=")
		f, ok := fields[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown flag %q", elem))
			continue
		}
		dst := fv.Field(f.index)
		var val reflect.Value
		switch {
		case hasValue:
			var err error
			if val, err = parseValue(name, dst.Type(), str); err != nil {
				errs = append(errs, err)
				continue
			}
		case dst.Kind() == reflect.Bool:
			val = reflect.ValueOf(true)
		default:
			errs = append(errs, fmt.Errorf("value needed for %s flag %q", dst.Type(), name))
			continue
		}
		if f.deprecated {
			if !dst.Equal(val) {
				errs = append(errs, fmt.Errorf("cannot change default value of deprecated flag %q", name))
			}
			continue
		}
		dst.Set(val)
	}
	return errors.Join(errs...)
}

type field struct {
	index      int
	name       string
	deprecated bool
}

var durationType = reflect.TypeFor[time.Duration]()

func parseValue(name string, typ reflect.Type, str string) (reflect.Value, error) {
	var (
		val any
		err error
	)
	switch {
	case typ == durationType:
		val, err = time.ParseDuration(str)
	case typ.Kind() == reflect.Bool:
		val, err = strconv.ParseBool(str)
	case typ.Kind() == reflect.Int:
		val, err = strconv.Atoi(str)
	case typ.Kind() == reflect.String:
		val = str
	default:
		return reflect.Value{}, errInvalid{fmt.Errorf("unsupported type %s", typ)}
	}
	if err != nil {
		return reflect.Value{}, errInvalid{fmt.Errorf("invalid %s value for %s: %v", typ, name, err)}
	}
	return reflect.ValueOf(val).Convert(typ), nil
}

// ErrInvalid indicates a malformed value.
var ErrInvalid = errors.New("invalid value")

type errInvalid struct{ error }

func (errInvalid) Is(err error) bool {
	return err == ErrInvalid
}
