package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/flower-shop-storefront/internal/account"
	"github.com/wichananm65/flower-shop-storefront/internal/auth"
	"github.com/wichananm65/flower-shop-storefront/internal/backend"
	"github.com/wichananm65/flower-shop-storefront/internal/blog"
	"github.com/wichananm65/flower-shop-storefront/internal/cart"
	"github.com/wichananm65/flower-shop-storefront/internal/catalog"
	"github.com/wichananm65/flower-shop-storefront/internal/chat"
	"github.com/wichananm65/flower-shop-storefront/internal/checkout"
	"github.com/wichananm65/flower-shop-storefront/internal/circuitbreaker"
	"github.com/wichananm65/flower-shop-storefront/internal/config"
	"github.com/wichananm65/flower-shop-storefront/internal/events"
	"github.com/wichananm65/flower-shop-storefront/internal/logging"
	"github.com/wichananm65/flower-shop-storefront/internal/notify"
	"github.com/wichananm65/flower-shop-storefront/internal/session"
	"github.com/wichananm65/flower-shop-storefront/internal/wishlist"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.New(backend.Config{
		BaseURL:        cfg.APIBaseURL,
		ChatbotURL:     cfg.ChatbotURL,
		ImageSearchURL: cfg.ImageSearchURL,
		Timeout:        cfg.BackendTimeout,
		Breaker:        circuitbreaker.Config{MaxFailures: 5, Timeout: 30 * time.Second},
	}, logger)

	// optional collaborators fall back to in-process implementations
	memStore := session.NewInMemoryStore(cfg.SessionTTL)
	var (
		store        session.Store   = memStore
		catalogStore catalog.Backend = client
		cache        *catalog.CachedBackend
	)
	if rdb := openRedis(ctx, cfg.RedisURL, logger); rdb != nil {
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTL)
		memStore = nil
		cache = catalog.NewCachedBackend(client, rdb, cfg.CatalogTTL, logger)
		catalogStore = cache
	}

	var snapshots checkout.SnapshotRepository = checkout.NewInMemorySnapshotRepository()
	if db := openDB(cfg.DatabaseURL, logger); db != nil {
		defer db.Close()
		repo := checkout.NewPostgresSnapshotRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("could not create payment_snapshots table")
		}
		snapshots = repo
	}

	var publisher events.Publisher = events.NewLogPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.WithError(err).Warn("kafka unavailable, logging events instead")
		} else {
			defer kp.Close()
			publisher = kp
		}
	}

	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	catalogService := catalog.NewService(catalogStore, client, logger)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	resolver := auth.NewResolver(store)

	idle := session.IdleTTL(cfg.StateIdleTTL)
	carts := session.NewRegistry(func(sess session.Context, n notify.Notifier) *cart.Manager {
		return cart.NewManager(sess, client, n, logger)
	}, hub.For, idle)
	wishlists := session.NewRegistry(func(sess session.Context, n notify.Notifier) *wishlist.Manager {
		return wishlist.NewManager(sess, client, client, catalogService, n, logger)
	}, hub.For, idle)
	flows := session.NewRegistry(func(sess session.Context, n notify.Notifier) *checkout.Flow {
		return checkout.NewFlow(sess, client, catalogService, snapshots, publisher, n, logger)
	}, hub.For, idle)
	dashboards := session.NewRegistry(func(sess session.Context, n notify.Notifier) *account.Dashboard {
		d := account.NewDashboard(sess, client, publisher, hub, n, logger)
		if cache != nil {
			// a new review changes the product's rating
			d.OnReviewSubmitted(func(e events.ReviewSubmitted) {
				cache.Invalidate(context.Background(), e.ProductID)
			})
		}
		return d
	}, hub.For, idle)

	evict := func(sessionID string) {
		carts.Evict(sessionID)
		wishlists.Evict(sessionID)
		flows.Evict(sessionID)
		dashboards.Evict(sessionID)
		logger.WithField("session_id", sessionID).Debug("evicted session state")
	}
	// logging out drops everything held for the session
	err := session.Watch(ctx, store, func(c session.Change) {
		if c.Cleared {
			evict(c.SessionID)
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("could not watch session changes")
	}
	// a redis session can expire without any change being announced
	resolver.OnMissing(evict)

	go carts.RunSweeper(ctx, time.Minute)
	go wishlists.RunSweeper(ctx, time.Minute)
	go flows.RunSweeper(ctx, time.Minute)
	go dashboards.RunSweeper(ctx, time.Minute)
	if memStore != nil {
		go memStore.RunExpiry(ctx, time.Minute)
	}
	widgets := session.NewPool[*chat.Widget](idle, session.MaxSize(cfg.ChatPoolSize))
	go widgets.RunSweeper(ctx, time.Minute)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	setupCORS(app)
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "breakers": client.BreakerStates()})
	})

	authHandler := auth.NewHandler(auth.NewService(client, store, issuer, logger), resolver)
	authHandler.RegisterPublicRoutes(app)
	catalog.NewHandler(catalogService).RegisterPublicRoutes(app)
	blog.NewHandler(blog.NewService(client, client.BaseURL(), logger)).RegisterPublicRoutes(app)
	links := chat.Links{SiteURL: cfg.SiteURL, AssetURL: client.BaseURL()}
	chat.NewHandler(widgets, func(id string) *chat.Widget {
		return chat.NewWidget(id, client, links, logger)
	}).RegisterPublicRoutes(app)

	app.Use(auth.Protected(cfg.JWTSecret))

	authHandler.RegisterProtectedRoutes(app)
	cart.NewHandler(resolver, carts).RegisterProtectedRoutes(app)
	wishlist.NewHandler(resolver, wishlists).RegisterProtectedRoutes(app)
	checkout.NewHandler(resolver, flows).RegisterProtectedRoutes(app)
	account.NewHandler(resolver, dashboards).RegisterProtectedRoutes(app)

	eventsServer := &http.Server{
		Addr:              cfg.EventsAddr,
		Handler:           notify.NewRouter(hub, issuer.SessionID),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.EventsAddr).Info("notification socket listening")
		if err := eventsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("notification server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = eventsServer.Shutdown(shutdownCtx)
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	logger.WithField("addr", cfg.Addr).Info("storefront listening")
	if err := app.Listen(cfg.Addr); err != nil {
		logger.WithError(err).Error("storefront stopped")
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

// openDB returns nil when no database is configured.
func openDB(dbURL string, logger *logrus.Logger) *sql.DB {
	if dbURL == "" {
		logger.Info("DATABASE_URL not set, payment snapshots kept in memory")
		return nil
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		logger.WithError(err).Fatal("could not open database")
	}
	if err := db.Ping(); err != nil {
		logger.WithError(err).Fatal("could not reach database")
	}
	return db
}

// openRedis returns nil when no Redis is configured.
func openRedis(ctx context.Context, redisURL string, logger *logrus.Logger) *redis.Client {
	if redisURL == "" {
		logger.Info("REDIS_URL not set, sessions kept in memory and catalog uncached")
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.WithError(err).Fatal("invalid REDIS_URL")
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("could not reach redis")
	}
	return rdb
}

func requestLogger(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Method(),
			"path":     c.OriginalURL(),
			"status":   c.Response().StatusCode(),
			"duration": time.Since(start).String(),
		}).Info("request")
		return err
	}
}
