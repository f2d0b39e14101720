// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"bastion/internal/config"
	"bastion/internal/discovery"
	"bastion/pkg/resource"
)

// newManager loads configuration, discovers packs, and builds a Manager
// with every healthy discovered pack active. Discovery returns packs in
// precedence order (current directory first), while the manager stack is
// lowest priority first, so the order is reversed before activation.
// Broken packs are reported on stderr and skipped.
func newManager(ctx context.Context) (*resource.Manager, *discovery.Discovery, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	disc := discovery.New(cfg)
	packs, err := disc.DiscoverAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pack discovery failed: %w", err)
	}
	if err := disc.CheckCollisions(packs); err != nil {
		return nil, nil, nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "bastion"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	mgr := resource.NewManager(
		resource.WithLogger(logger),
		resource.WithProvider(disc.Provider()),
	)

	ids := make([]string, 0, len(packs))
	for i := len(packs) - 1; i >= 0; i-- {
		dp := packs[i]
		if dp.Error != nil {
			fmt.Fprintf(os.Stderr, "%s skipping broken pack at %s: %v\n",
				WarningStyle.Render("Warning:"), dp.Path, dp.Error)
			continue
		}
		ids = append(ids, disc.EffectiveID(dp))
	}
	if err := mgr.SetActive(ids...); err != nil {
		return nil, nil, nil, err
	}
	if err := mgr.Reload(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build resource index: %w", err)
	}
	return mgr, disc, cfg, nil
}
