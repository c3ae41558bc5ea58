package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/h0rv/pulp/internal/api"
	"github.com/h0rv/pulp/internal/auth"
	"github.com/h0rv/pulp/internal/config"
	"github.com/h0rv/pulp/internal/logging"
	"github.com/h0rv/pulp/internal/optimistic"
	"github.com/h0rv/pulp/internal/store"
)

// environment holds the wired dependencies shared by all commands.
type environment struct {
	cfg      *config.Config
	log      *logrus.Logger
	client   *api.Client
	coord    *optimistic.Coordinator
	closeLog func() error
}

func setup() (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.WithField("api", cfg.APIURL)

	token, err := auth.Resolve(
		&auth.StaticProvider{Token: cfg.Token},
		&auth.EnvProvider{},
		&auth.CommandProvider{Command: cfg.TokenCommand},
	)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			_ = closeLog()
			return nil, err
		}
		// Servers without authentication are fine.
		log.WithError(err).Warn("no API token, requests are sent anonymously")
	}

	client, err := api.New(cfg.APIURL,
		api.WithToken(token),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	coord := optimistic.New(store.New(), client,
		optimistic.WithLogger(log),
		optimistic.WithNotifier(optimistic.NotifierFunc(func(err error) {
			log.WithError(err).Warn("mutation rolled back")
		})),
	)

	return &environment{
		cfg:      cfg,
		log:      logger,
		client:   client,
		coord:    coord,
		closeLog: closeLog,
	}, nil
}

func (e *environment) close() {
	if err := e.closeLog(); err != nil {
		e.log.WithError(err).Debug("closing log file")
	}
}
