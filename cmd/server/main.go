package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-counter-go/internal/client"
	"traffic-counter-go/internal/config"
	"traffic-counter-go/internal/counter"
	"traffic-counter-go/internal/database"
	"traffic-counter-go/internal/handler"
	"traffic-counter-go/internal/repository"
	"traffic-counter-go/internal/rpc"
	"traffic-counter-go/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.Info("Запуск Traffic Counter API Server")

	// Загружаем конфигурацию: файл CONFIG_FILE и переменные окружения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Неизвестный уровень логирования %q, используем info", cfg.Logging.Level)
	}

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	db, err := database.Connect(database.Config{
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close(db)

	// Выполняем миграции
	logger.Info("Выполнение миграций базы данных...")
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	// Проверяем здоровье базы данных
	if err := database.HealthCheck(db); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	// Инициализируем репозитории
	sessionRepo := repository.NewSessionRepository(db)

	// Инициализируем сервисы
	sessionService := service.NewSessionService(sessionRepo, logger)
	detectorClient := client.NewDetectorAPIClient(cfg.Detector.BaseURL, cfg.DetectorTimeout(), logger)
	countingService := service.NewCountingService(sessionService, detectorClient, counter.Config{
		ConfidenceThreshold: cfg.Counting.ConfidenceThreshold,
		LineRatio:           cfg.Counting.LineRatio,
		MaxIdleFrames:       uint64(cfg.Counting.MaxIdleFrames),
	}, logger)

	// Инициализируем обработчики
	sessionHandler := handler.NewSessionHandler(countingService, func() error { return database.HealthCheck(db) }, logger)
	frameHandler := handler.NewFrameHandler(countingService, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(_ string) bool {
			return true
		},
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Регистрируем маршруты
	sessionHandler.RegisterRoutes(router)
	frameHandler.RegisterRoutes(router)

	// Добавляем базовый маршрут для проверки
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Traffic Counter API Server",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Запускаем gRPC сервер проверки здоровья
	var healthServer *rpc.HealthServer
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
		if err != nil {
			logger.Fatalf("Ошибка открытия порта gRPC: %v", err)
		}
		healthServer = rpc.NewHealthServer(logger)
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Errorf("gRPC сервер остановлен с ошибкой: %v", err)
			}
		}()
		if interval := cfg.HealthCheckInterval(); interval > 0 {
			go healthServer.Watch(ctx, countingService, interval)
		}
	}

	// Запускаем сервер
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Сервер запущен на порту %d", cfg.Server.Port)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки, завершаем работу...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки HTTP сервера: %v", err)
	}
	if err := countingService.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка сохранения открытых сессий: %v", err)
	}
	if healthServer != nil {
		healthServer.Stop()
	}

	logger.Info("Сервер остановлен")
}
