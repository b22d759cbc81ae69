package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/config"
	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/logger"
	"github.com/mtalvio/onedrive-audit/internal/scan"
	"github.com/mtalvio/onedrive-audit/pkg/graph"
)

// SDK is the slice of the Graph client the commands use. Mocked in tests.
type SDK interface {
	scan.API
	InviteUser(ctx context.Context, itemID string, request graph.InviteRequest) ([]graph.Permission, error)
	DeletePermission(ctx context.Context, itemID, permissionID string) error
	StripExplicit(ctx context.Context, itemID string) (graph.StripResult, error)
}

// App carries the wired-up dependencies of a single command invocation.
type App struct {
	Config *config.Configuration
	Logger logger.Logger
	Store  *credentials.Store
	Cred   *credentials.Credential
	SDK    SDK
}

// newStore builds the credential store from flags and configuration, without
// resolving a credential yet.
func newStore(cmd *cobra.Command, cfg *config.Configuration, log logger.Logger) (*credentials.Store, error) {
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}

	rclonePath, _ := cmd.Flags().GetString("rclone-config")
	if rclonePath == "" {
		rclonePath, err = config.DefaultRcloneConfigPath()
		if err != nil {
			return nil, err
		}
	}

	return credentials.NewStore(
		credentials.NewOwnedStore(tokenPath),
		credentials.NewForeignSource(rclonePath),
		cfg.EffectiveClientID(),
		log,
	), nil
}

// newApp loads configuration, resolves a credential of the required
// capability, and wires up the Graph client. Every command except
// 'auth login' and 'auth logout' goes through here.
func newApp(cmd *cobra.Command, required credentials.Capability) (*App, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		cfg.Debug = true
	}
	log := logger.NewDefaultLogger(cfg.Debug)

	store, err := newStore(cmd, cfg, log)
	if err != nil {
		return nil, err
	}

	remote, _ := cmd.Flags().GetString("remote")
	if remote == "" {
		remote = cfg.Remote
	}
	preferOwned, _ := cmd.Flags().GetBool("prefer-owned")

	cred, err := store.Acquire(cmd.Context(), remote, required, preferOwned)
	if err != nil {
		return nil, fmt.Errorf("acquiring credentials: %w", err)
	}
	log.Debugf("credentials resolved: %s", cred.Describe())

	return &App{
		Config: cfg,
		Logger: log,
		Store:  store,
		Cred:   cred,
		SDK:    graph.NewClient(cmd.Context(), cred.AccessToken, log),
	}, nil
}
