package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/cobaltcrm/console/pkg/api"
	"github.com/cobaltcrm/console/pkg/config"
	"github.com/cobaltcrm/console/pkg/httputil"
	"github.com/cobaltcrm/console/pkg/navigation"
	"github.com/cobaltcrm/console/pkg/notify"
	"github.com/cobaltcrm/console/pkg/observability"
	"github.com/cobaltcrm/console/pkg/permissions"
	"github.com/cobaltcrm/console/pkg/session"
)

// app wires the SDK components for one CLI invocation.
type app struct {
	cfg      *config.Config
	log      *observability.Logger
	notifier *notify.Center
	sess     session.Store
	client   *api.Client
	store    *permissions.Store
	builder  *navigation.Builder
}

// newApp assembles the client stack from configuration. The session
// store is file-backed by default; setting a redis URL shares the
// session across processes instead.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stderr)
	notifier := notify.NewCenter()

	var sess session.Store
	if cfg.Session.RedisURL != "" {
		sess, err = session.NewRedisStore(ctx, cfg.Session.RedisURL)
	} else {
		sess, err = session.NewFileStore(cfg.Session.TokenFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: httputil.NewTransport(session.TokenSource(ctx, sess), cfg.API.OTelEnabled),
	}
	client := api.NewClient(api.Config{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		CacheTTL:   cfg.API.CacheTTL,
	})

	store := permissions.NewStore(permissions.StoreConfig{
		Backend:  client,
		Session:  sess,
		Notifier: notifier,
		Logger:   log,
	})
	builder := navigation.NewBuilder(navigation.BuilderConfig{
		Backend:     client,
		Permissions: store,
		Notifier:    notifier,
		Logger:      log,
	})

	return &app{
		cfg:      cfg,
		log:      log,
		notifier: notifier,
		sess:     sess,
		client:   client,
		store:    store,
		builder:  builder,
	}, nil
}

// startup fetches permissions and the navigation hierarchy in parallel,
// the same way the console shell does at mount.
func (a *app) startup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.store.Initialize(gctx) })
	g.Go(func() error { return a.builder.Load(gctx) })
	return g.Wait()
}

func (a *app) close() {
	a.builder.Close()
	a.store.Close()
	if err := a.sess.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close session store")
	}
}
