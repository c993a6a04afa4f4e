package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/config"
	"github.com/toribox/toriadmin/internal/controllers"
	"github.com/toribox/toriadmin/internal/models"
	"github.com/toribox/toriadmin/internal/services/toribox"
	"github.com/toribox/toriadmin/internal/utils"
)

// commandContext lazily builds what the commands share
type commandContext struct {
	once   sync.Once
	err    error
	config *config.Config
	logger *logrus.Logger
	client *toribox.Client
	store  *toribox.FileTokenStore
}

func (c *commandContext) ensure() error {
	c.once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.err = fmt.Errorf("failed to load configuration: %w", err)
			return
		}

		// Command output goes to stdout, so logs go to stderr
		logger := utils.NewLoggerTo(os.Stderr, cfg.LogLevel)

		client, err := toribox.NewClient(cfg, logger)
		if err != nil {
			c.err = fmt.Errorf("failed to initialize ToriBox client: %w", err)
			return
		}

		c.config = cfg
		c.logger = logger
		c.client = client
		c.store = toribox.NewFileTokenStore(cfg.CredentialsFile)
	})
	return c.err
}

// token returns the stored admin token, or "" when nobody is logged in
func (c *commandContext) token() string {
	return toribox.Token(c.store)
}

// requireToken returns the stored admin token or explains how to get one
func (c *commandContext) requireToken() (string, error) {
	token := c.token()
	if token == "" {
		return "", fmt.Errorf("%w: run `toriadmin login` first", toribox.ErrNotAuthenticated)
	}
	return token, nil
}

// newCatalog builds a catalog for a single command run
func (c *commandContext) newCatalog() *controllers.Catalog {
	return controllers.NewCatalog(c.client, time.Duration(c.config.MovieCacheMinutes)*time.Minute, nil, c.logger)
}

// openDatabase opens the local database; callers close it
func (c *commandContext) openDatabase() (*models.Database, error) {
	db, err := models.NewDatabase(c.config.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open database (is `toriadmin serve` running?): %w", err)
	}
	return db, nil
}
