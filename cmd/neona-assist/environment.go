package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fentz26/neona-assist/internal/assistant"
	"github.com/fentz26/neona-assist/internal/audit"
	"github.com/fentz26/neona-assist/internal/auth"
	"github.com/fentz26/neona-assist/internal/config"
	"github.com/fentz26/neona-assist/internal/orchestrator"
	"github.com/fentz26/neona-assist/internal/store"
	"go.uber.org/zap"
)

// environment is everything a command needs to talk to the assistant.
type environment struct {
	cfg       *config.Config
	db        *store.SQLite
	auth      *auth.Manager
	assistant *assistant.Store
	audit     *audit.PDRWriter
}

// openEnvironment opens the state database, reads credentials and restores
// the assistant state. When ephemeral is set no database is opened and
// nothing is audited.
func openEnvironment(ctx context.Context, cfg *config.Config, logger *zap.Logger, ephemeral bool) (*environment, error) {
	var (
		db      *store.SQLite
		storage store.Storage = store.NewMemory()
		writer  *audit.PDRWriter
	)
	if !ephemeral {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		var err error
		db, err = store.New(cfg.DBPath, cfg.Scope)
		if err != nil {
			return nil, err
		}
		storage = db
		writer = audit.NewPDRWriter(db)
	}

	authMgr, err := auth.NewManager(cfg.CredentialsDir)
	if err != nil {
		logger.Warn("ignoring unreadable credentials", zap.Error(err))
	}

	opts := []orchestrator.Option{orchestrator.WithTimeout(cfg.ClientTimeout)}
	userID := func() string { return "" }
	if authMgr != nil {
		opts = append(opts, orchestrator.WithTokenSource(authMgr.Token))
		userID = authMgr.UserID
	}
	client := orchestrator.NewHTTPClient(cfg.APIURL, opts...)

	assistOpts := assistant.Options{
		Client:  client,
		Storage: storage,
		UserID:  userID,
		Logger:  logger.Named("assistant"),
	}
	if writer != nil {
		assistOpts.Recorder = writer
	}
	st, err := assistant.New(ctx, assistOpts)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	logger.Debug("environment ready",
		zap.String("api_url", cfg.APIURL),
		zap.String("db_path", cfg.DBPath),
		zap.String("scope", cfg.Scope),
	)
	return &environment{cfg: cfg, db: db, auth: authMgr, assistant: st, audit: writer}, nil
}

// user returns the signed-in user, or nil.
func (e *environment) user() *auth.User {
	if e.auth == nil {
		return nil
	}
	u := e.auth.GetUser()
	if u == nil && e.auth.UserID() != "" {
		u = &auth.User{ID: e.auth.UserID()}
	}
	return u
}

// requireProject returns the configured project or an error naming the flag.
func (e *environment) requireProject() (string, error) {
	if e.cfg.ProjectID == "" {
		return "", fmt.Errorf("%w: pass --project or set project_id in %s", assistant.ErrNoActiveProject, config.DefaultPath())
	}
	return e.cfg.ProjectID, nil
}

func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// mustEnv opens the shared environment for the running command.
func mustEnv(ctx context.Context) (*environment, error) {
	if env != nil {
		return env, nil
	}
	e, err := openEnvironment(ctx, cfg, logger, ephemeral)
	if err != nil {
		return nil, err
	}
	env = e
	return env, nil
}
