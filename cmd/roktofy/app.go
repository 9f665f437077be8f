package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roktofy/client/internal/apiclient"
	"github.com/roktofy/client/internal/auth"
	"github.com/roktofy/client/internal/config"
	"github.com/roktofy/client/internal/session"
	"github.com/roktofy/client/internal/storage"
)

// app wires the client stack for one command invocation
type app struct {
	store   storage.Storage
	tokens  *auth.TokenStore
	client  *apiclient.Client
	session *session.Manager
	logger  *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)
	}
	tokens := auth.NewTokenStore(store, logger)
	client, err := apiclient.New(cfg.APIURL, tokens,
		apiclient.WithScheme(cfg.AuthScheme),
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &app{
		store:   store,
		tokens:  tokens,
		client:  client,
		session: session.New(client, logger),
		logger:  logger,
	}, nil
}

// requireLogin restores a persisted session and fails when there is none
func (a *app) requireLogin(ctx context.Context) error {
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	if a.session.User() == nil {
		return &session.Error{Op: "restore", Message: "You are not logged in. Run `roktofy login` first.", Err: auth.ErrNoCredentials}
	}
	return nil
}

// Close releases the storage backend
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", zap.Error(err))
	}
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// loggedIn is a PreRunE for commands that need a session
func loggedIn(cmd *cobra.Command, _ []string) error {
	return cli.requireLogin(cmd.Context())
}
