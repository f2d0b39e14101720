// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"bastion/internal/config"
	"bastion/internal/testutil"
)

func TestRunWatchDisabledByConfig(t *testing.T) {
	// Not parallel: overrides the process-wide config directory.

	restoreHome := testutil.SetHomeDir(t, t.TempDir())
	t.Cleanup(restoreHome)

	cfgDir := t.TempDir()
	content := "watch: {\n\tenabled: false\n}\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	config.SetConfigDirOverride(cfgDir)
	t.Cleanup(config.Reset)

	restoreWd := testutil.MustChdir(t, t.TempDir())
	t.Cleanup(restoreWd)

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runWatch(cmd, nil)
	if !errors.Is(err, errWatchDisabled) {
		t.Fatalf("runWatch() err = %v, want errWatchDisabled", err)
	}
}
