// Copyright 2026 Dolex Labs
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
// Package home provides home directory utilities.
package home

import (
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the dolex home directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dolex"), nil
}

// EnsureDir ensures the home directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0750)
}

// UserHome returns the user's home directory (not .dolex).
// Returns empty string on error.
func UserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

// Expand resolves a leading ~ or ~/ to the user's home directory.
// Paths without a tilde are returned unchanged.
func Expand(path string) string {
	if path == "~" {
		return UserHome()
	}
	if strings.HasPrefix(path, "~/") {
		home := UserHome()
		if home == "" {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Short returns a shortened path (replaces home with ~).
func Short(path string) string {
	home := UserHome()
	if home != "" && len(path) > len(home) && path[:len(home)] == home {
		return "~" + path[len(home):]
	}
	return path
}
