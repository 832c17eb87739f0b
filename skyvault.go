// Package skyvault ties the library together: configuration, logging,
// backend selection, and the typed file manager.
//
// Most callers only need Open:
//
//	mgr, err := skyvault.Open(config.LoadOrDefault())
//	if err != nil { ... }
//	r := mgr.ReadJSONObject(ctx, "settings")
package skyvault

import (
	"fmt"

	"github.com/skyvault/skyvault/access"
	"github.com/skyvault/skyvault/config"
	"github.com/skyvault/skyvault/internal/logging"
	"github.com/skyvault/skyvault/result"
	"github.com/skyvault/skyvault/store/s3"
	"github.com/skyvault/skyvault/vault"
)

// Open builds a Manager from configuration: logger, backend (cloud when
// configured and reachable, local otherwise), path-scoped accessor, typed
// façade. The result package's diagnostic logger is wired to the same
// logger so empty-result warnings surface.
func Open(cfg *config.Config) (*vault.Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("skyvault: build logger: %w", err)
	}
	result.SetLogger(logger.Logger)

	opts := []access.Option{access.WithLogger(logger.Logger)}
	if cfg.CloudEnabled() {
		opts = append(opts, access.WithCloud(s3.Options{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			Prefix:          cfg.S3.Prefix,
			CacheDir:        cfg.S3.CacheDir,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			SessionToken:    cfg.S3.SessionToken,
		}))
	}

	acc, err := access.New(cfg.Root, opts...)
	if err != nil {
		return nil, err
	}
	return vault.New(acc, vault.WithLogger(logger.Logger)), nil
}
