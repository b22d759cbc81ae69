package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtalvio/onedrive-audit/internal/authflow"
	"github.com/mtalvio/onedrive-audit/internal/config"
	"github.com/mtalvio/onedrive-audit/internal/credentials"
	"github.com/mtalvio/onedrive-audit/internal/logger"
	"github.com/mtalvio/onedrive-audit/internal/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage this tool's own credentials",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in interactively and store a token",
	Long: `Runs the browser-based sign-in flow and writes the resulting token to this
tool's own token store. The stored token carries write scope, so grant and
revoke work without touching any rclone configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return authLoginLogic(cmd)
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active credential and its capability",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, credentials.CapabilityUnknown)
		if err != nil {
			return err
		}
		ui.DisplayCredentialStatus(a.Cred)
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authLogoutLogic(cmd)
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func authLoginLogic(cmd *cobra.Command) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	log := logger.NewDefaultLogger(cfg.Debug || debug)

	session, err := authflow.NewSession(cfg.EffectiveClientID(), log)
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println()
	fmt.Println("  " + session.AuthURL())
	fmt.Println()
	fmt.Println("Waiting for sign-in to complete (Ctrl-C to cancel)...")

	tok, err := session.Wait(cmd.Context())
	if err != nil {
		if errors.Is(err, authflow.ErrCancelled) {
			return err
		}
		return fmt.Errorf("login failed: %w", err)
	}

	store, err := newStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	scope, _ := tok.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(authflow.Scopes, " ")
	}
	if err := store.SaveOwned(tok, scope); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	ui.PrintSuccess("logged in, token stored")
	return nil
}

func authLogoutLogic(cmd *cobra.Command) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	log := logger.NewDefaultLogger(cfg.Debug || debug)

	store, err := newStore(cmd, cfg, log)
	if err != nil {
		return err
	}
	if err := store.Logout(); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	ui.PrintSuccess("logged out, stored token removed")
	return nil
}
