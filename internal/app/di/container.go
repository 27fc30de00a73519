package di

import (
	"net/http"
	"sync"

	"github.com/muratoffalex/shuller/internal/booru"
	"github.com/muratoffalex/shuller/internal/config"
	"github.com/muratoffalex/shuller/internal/database"
	"github.com/muratoffalex/shuller/internal/downloader"
	"github.com/muratoffalex/shuller/internal/logger"
	"github.com/muratoffalex/shuller/internal/network"
)

type Container struct {
	Logger         logger.Logger
	Cfg            *config.Config
	HTTPClient     *http.Client
	DownloadClient *http.Client
	Client         *booru.Client

	dbOnce sync.Once
	db     database.Database
	dbErr  error
}

// NewContainer builds the logger from cfg. Use NewContainerWithLogger to inject one.
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithLogger(cfg, logger.NewLogrusLogger(cfg.Log()))
}

func NewContainerWithLogger(cfg *config.Config, l logger.Logger) (*Container, error) {
	apiCfg := cfg.API()

	httpClient, err := network.SetupHTTPClient(network.NewAPIHTTPClientConfig(cfg.HTTP(), apiCfg.Timeout), l)
	if err != nil {
		return nil, err
	}
	downloadClient, err := network.SetupHTTPClient(network.NewDownloadHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, err
	}

	client, err := booru.NewClient(httpClient, l, booru.ClientOptions{
		Endpoint:  apiCfg.Endpoint,
		UserAgent: apiCfg.UserAgent,
		Limiter:   booru.NewRateLimiter(apiCfg.RateLimit.Period, apiCfg.RateLimit.Burst),
	})
	if err != nil {
		return nil, err
	}

	l.WithFields(logger.Fields{
		"endpoint":   apiCfg.Endpoint,
		"rate_burst": apiCfg.RateLimit.Burst,
	}).Debug("Booru client initialized")

	return &Container{
		Logger:         l,
		Cfg:            cfg,
		HTTPClient:     httpClient,
		DownloadClient: downloadClient,
		Client:         client,
	}, nil
}

// DB opens the download history on first use. Commands that never download
// do not touch the database file.
func (c *Container) DB() (database.Database, error) {
	c.dbOnce.Do(func() {
		c.db, c.dbErr = database.NewSQLiteDB(c.Cfg.GetDatabaseDSN(), c.Logger)
	})
	return c.db, c.dbErr
}

func (c *Container) Downloader() (*downloader.Downloader, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	dlCfg := c.Cfg.Download()
	return downloader.New(c.DownloadClient, db, c.Logger, downloader.Options{
		Directory: dlCfg.Directory,
		Threads:   dlCfg.Threads,
		Overwrite: dlCfg.Overwrite,
		UserAgent: c.Cfg.API().UserAgent,
	}), nil
}

func (c *Container) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
