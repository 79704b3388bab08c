// Точка входа Document Module — хранилище документов абитуриентов ETEEAP.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// инициализирует файловое хранилище, клиент сервиса профилей, сервисный
// слой и API handlers, запускает мониторинг зависимостей (topologymetrics)
// и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/eteeap/document-module/internal/api/handlers"
	"github.com/eteeap/document-module/internal/api/middleware"
	"github.com/eteeap/document-module/internal/config"
	"github.com/eteeap/document-module/internal/database"
	"github.com/eteeap/document-module/internal/profileclient"
	"github.com/eteeap/document-module/internal/repository"
	"github.com/eteeap/document-module/internal/server"
	"github.com/eteeap/document-module/internal/service"
	"github.com/eteeap/document-module/internal/storage/filestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Document Module запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("DM_DEPHEALTH_GROUP") == "" {
		logger.Warn("DM_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Файловое хранилище
	fileStore, err := filestore.New(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации файлового хранилища",
			slog.String("data_dir", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	logger.Info("Файловое хранилище готово", slog.String("data_dir", cfg.DataDir))

	// 6. Клиент сервиса профилей (источник назначений эксперт↔абитуриент)
	profileClient, err := profileclient.New(
		cfg.ProfileURL,
		cfg.ProfileCACert,
		cfg.ProfileToken,
		cfg.ProfileTimeout,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания клиента сервиса профилей", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repository + сервисный слой
	docRepo := repository.NewDocumentRepository(pool)
	cache := service.NewMetadataCache(cfg.CacheSize, cfg.CacheTTL)
	docStore := service.NewDocumentStore(docRepo, fileStore, cache, logger)
	access := service.NewAccessEvaluator(profileClient, logger)

	// 8. JWT middleware (JWKS с автообновлением ключей)
	jwtAuth, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
		JWKSURL:         cfg.JWKSUrl,
		CACertPath:      cfg.JWKSCACert,
		TLSSkipVerify:   cfg.TLSSkipVerify,
		ClientTimeout:   cfg.JWKSClientTimeout,
		RefreshInterval: cfg.JWKSRefreshInterval,
		JWTLeeway:       cfg.JWTLeeway,
	}, logger)
	if err != nil {
		logger.Error("Ошибка инициализации JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 9. Мониторинг зависимостей (topologymetrics)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"document-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.ProfileURL,
		cfg.DephealthCheckInterval,
		cfg.DephealthIsEntry,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("Мониторинг зависимостей не инициализирован",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Не удалось запустить мониторинг зависимостей",
				slog.String("error", startErr.Error()),
			)
		}
	}

	// 10. Handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	docsHandler := handlers.NewDocumentsHandler(
		docStore,
		access,
		cfg.MaxFileSize,
		cfg.DebugErrors,
		logger,
	)

	// 11. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, docsHandler, healthHandler, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil && dephealthErr == nil {
		dephealthSvc.Stop()
	}

	logger.Info("Document Module остановлен")
}
