package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/muratoffalex/shuller/internal/app/di"
	"github.com/muratoffalex/shuller/internal/booru"
	"github.com/muratoffalex/shuller/internal/config"
	"github.com/muratoffalex/shuller/internal/downloader"
	"github.com/muratoffalex/shuller/internal/logger"
)

// DefaultMaxRandomID bounds random post ids when no bound is given.
const DefaultMaxRandomID = 10_000_000

var ErrNotFound = errors.New("post not found")

// Query is the command line view of a post search. Limit, Page and ID are
// applied only when the matching Has flag is set, so an explicit 0 is kept.
type Query struct {
	Tags     []string
	Exclude  []string
	Limit    int
	HasLimit bool
	Page     int
	HasPage  bool
	ID       uint64
	HasID    bool
}

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	di     *di.Container
	rng    booru.RandomSource
}

// New loads the configuration at configPath and applies overrides on top of
// it, typically values from command line flags.
func New(configPath string, overrides map[string]any) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if err := cfg.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to override %s: %w", key, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, err
	}
	container.Logger.Debug("DI Container created")

	return newApplication(cfg, container), nil
}

// NewWithContainer is used when the caller has already built the dependencies.
func NewWithContainer(container *di.Container) *Application {
	return newApplication(container.Cfg, container)
}

func newApplication(cfg *config.Config, container *di.Container) *Application {
	return &Application{
		Logger: container.Logger,
		cfg:    cfg,
		di:     container,
		rng:    booru.DefaultRandom,
	}
}

func (a *Application) SetRandomSource(rng booru.RandomSource) {
	a.rng = rng
}

func (a *Application) Params(q Query) booru.Params {
	p := a.di.Client.NewParams().
		WithRandomSource(a.rng).
		PositiveTags(q.Tags...).
		NegativeTags(q.Exclude...)
	if q.HasLimit {
		p = p.Limit(q.Limit)
	}
	if q.HasPage {
		p = p.Page(q.Page)
	}
	if q.HasID {
		p = p.ID(q.ID)
	}
	return p
}

func (a *Application) URL(q Query) (string, error) {
	return a.di.Client.URL(a.Params(q))
}

// Search runs q. A positive sample keeps that many random posts; asking for
// more than were returned keeps all of them in random order.
func (a *Application) Search(ctx context.Context, q Query, sample int) (booru.Posts, error) {
	posts, err := booru.NewRule34(a.di.Client, a.Params(q)).Search(ctx)
	if err != nil {
		return nil, err
	}
	if sample <= 0 {
		return posts, nil
	}
	if sample > posts.Len() {
		a.Logger.WithFields(logger.Fields{
			"requested": sample,
			"available": posts.Len(),
		}).Warn("Sample is larger than the result, shuffling all posts")
		return posts.Shuffle(a.rng), nil
	}
	return posts.Sample(a.rng, sample), nil
}

func (a *Application) Random(ctx context.Context, maxID uint64) (booru.Post, error) {
	if maxID == 0 {
		maxID = DefaultMaxRandomID
	}
	post, ok, err := a.di.Client.RandomPost(ctx, a.rng, maxID)
	if err != nil {
		return booru.Post{}, err
	}
	if !ok {
		return booru.Post{}, ErrNotFound
	}
	return post, nil
}

func (a *Application) Download(ctx context.Context, q Query, sample int) (downloader.Result, error) {
	posts, err := a.Search(ctx, q, sample)
	if err != nil {
		return downloader.Result{}, err
	}
	if posts.IsEmpty() {
		a.Logger.Info("Nothing to download")
		return downloader.Result{}, nil
	}

	d, err := a.di.Downloader()
	if err != nil {
		return downloader.Result{}, fmt.Errorf("failed to init downloader: %w", err)
	}
	return d.Download(ctx, posts)
}

func (a *Application) Close() {
	if err := a.di.Close(); err != nil {
		a.Logger.WithError(err).Error("Failed to close database")
	}
}
