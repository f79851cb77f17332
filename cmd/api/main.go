package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/application/requests"
	"github.com/jhoicas/almacen-ledger/internal/application/usecase"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/idempotency"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/rabbitmq"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/sqlite"
	httpRouter "github.com/jhoicas/almacen-ledger/internal/interfaces/http"
	"github.com/jhoicas/almacen-ledger/pkg/config"
	"github.com/jhoicas/almacen-ledger/pkg/logger"
)

// stores puertos de persistencia del ledger para el driver elegido.
type stores struct {
	tx        inventory.TxRunner
	movements repository.MovementReader
	summary   repository.InventorySummaryRepository
	products  repository.ProductRepository
	close     func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &stores{
			tx:        postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
			movements: postgres.NewInventoryMovementRepository(pool),
			summary:   postgres.NewInventorySummaryRepository(pool),
			products:  postgres.NewProductRepository(pool),
			close:     pool.Close,
		}, nil
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, cfg.Ledger.LockTimeout)
		if err != nil {
			return nil, err
		}
		return &stores{
			tx:        db,
			movements: sqlite.NewInventoryMovementRepository(db.DB),
			summary:   sqlite.NewInventorySummaryRepository(db.DB),
			products:  sqlite.NewProductRepository(db.DB),
			close:     func() { _ = db.Close() },
		}, nil
	case config.StoreMemory:
		// Sin persistencia: solo para demos y pruebas locales.
		mem := memory.New()
		return &stores{tx: mem, movements: mem, summary: mem, products: mem, close: func() {}}, nil
	}
	return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
}

func idempotencyStore(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (httpRouter.IdempotencyStore, func()) {
	if cfg.Addr == "" {
		log.Info().Msg("idempotencia en memoria (REDIS_ADDR vacío)")
		return idempotency.NewMemoryStore(10000, cfg.IdempotencyTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis no disponible, idempotencia en memoria")
		_ = client.Close()
		return idempotency.NewMemoryStore(10000, cfg.IdempotencyTTL), func() {}
	}
	return idempotency.NewRedisStore(client, cfg.IdempotencyTTL), func() { _ = client.Close() }
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store.Driver).Msg("abrir almacenamiento")
	}
	defer st.close()

	ledgerMetrics := metrics.NewLedgerMetrics(prometheus.DefaultRegisterer)
	opts := []inventory.Option{inventory.WithLogger(log), inventory.WithMetrics(ledgerMetrics)}

	// RabbitMQ es opcional: sin URL los movimientos no se publican y no hay consumidor de reservas.
	var rabbit *rabbitmq.Conn
	if cfg.RabbitMQ.URL != "" {
		rabbit, err = rabbitmq.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rabbit.Close()
		publisher, err := rabbitmq.NewMovementPublisher(rabbit, cfg.RabbitMQ.MovementsExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("publicador de movimientos")
		}
		opts = append(opts, inventory.WithPublisher(publisher))
	}

	ledgerUC := inventory.NewLedgerUseCase(st.tx, st.products, opts...)
	summaryUC := inventory.NewSummaryUseCase(st.summary, st.products)
	historyUC := inventory.NewHistoryUseCase(st.movements, st.summary, st.products, cfg.Ledger.HistoryMaxLimit)
	completer := requests.NewCompleter(ledgerUC)

	if rabbit != nil {
		consumer, err := rabbitmq.NewConsumer(rabbit, rabbitmq.QueueNames{
			ReserveRequest: cfg.RabbitMQ.ReserveQueue,
			ReleaseRequest: cfg.RabbitMQ.ReleaseQueue,
			ReserveResult:  cfg.RabbitMQ.ResultQueue,
		}, rabbitmq.NewReservationHandler(ledgerUC), log)
		if err != nil {
			log.Fatal().Err(err).Msg("consumidor de reservas")
		}
		if err := consumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("iniciar consumidor de reservas")
		}
	}

	idem, closeIdem := idempotencyStore(ctx, cfg.Redis, log)
	defer closeIdem()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Almacén Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerUC,
		Summary:     summaryUC,
		History:     historyUC,
		Requests:    completer,
		Products:    usecase.NewProductUseCase(st.products),
		Idempotency: idem,
		Logger:      log,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
