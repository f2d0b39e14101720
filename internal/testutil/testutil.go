// SPDX-License-Identifier: MPL-2.0

// Package testutil provides small fail-fast helpers for tests that touch
// the filesystem or the environment.
package testutil

import (
	"os"
	"testing"
)

// MustChdir changes the working directory to dir and returns a cleanup
// function restoring the original one. Fails the test on error.
func MustChdir(t testing.TB, dir string) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get current directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
	return func() {
		if err := os.Chdir(wd); err != nil {
			t.Errorf("failed to restore directory to %s: %v", wd, err)
		}
	}
}

// MustSetenv sets an environment variable and returns a cleanup function
// restoring (or unsetting) the original value. Fails the test on error.
func MustSetenv(t testing.TB, key, value string) func() {
	t.Helper()
	prev, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	return func() {
		if !had {
			if err := os.Unsetenv(key); err != nil {
				t.Errorf("failed to unset env %s: %v", key, err)
			}
			return
		}
		if err := os.Setenv(key, prev); err != nil {
			t.Errorf("failed to restore env %s: %v", key, err)
		}
	}
}

// MustMkdirAll creates a directory along with any necessary parents,
// failing the test on error.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}
