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

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	botpb "github.com/Leganyst/slotbook/internal/api/bot/v1"
	"github.com/Leganyst/slotbook/internal/bot"
	"github.com/Leganyst/slotbook/internal/config"
	"github.com/Leganyst/slotbook/internal/db"
	"github.com/Leganyst/slotbook/internal/httpapi"
	"github.com/Leganyst/slotbook/internal/inventory"
	applogger "github.com/Leganyst/slotbook/internal/logger"
	"github.com/Leganyst/slotbook/internal/model"
	"github.com/Leganyst/slotbook/internal/notify"
	"github.com/Leganyst/slotbook/internal/repository"
	"github.com/Leganyst/slotbook/internal/service"
	"github.com/Leganyst/slotbook/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Конфиг: дефолты, config.yaml, .env и окружение.
	cfg, err := config.Load(os.Getenv("SLOTBOOK_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Логгер.
	log, err := applogger.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	loc, _ := cfg.Calendar.Location() // уже проверено в Validate

	// 3. БД и миграции.
	gormDB, err := db.NewGormDB(cfg.DB)
	if err != nil {
		log.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 4. Репозитории и операции над расписанием.
	slotRepo := repository.NewGormSlotRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	inv := inventory.NewService(gormDB, slotRepo, bookingRepo, log.Named("inventory"))

	// 5. Уведомления.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier, closeNotifier := newNotifier(ctx, cfg.Notify, log)
	defer closeNotifier()

	// 6. Диалоги и команды.
	machine := session.NewMachine(inv, func() time.Time { return time.Now().In(loc) })
	dispatcher := bot.NewDispatcher(
		cfg.Operator.ID,
		inv,
		machine,
		session.NewMemoryStore(),
		notify.NewDispatcher(notifier, log.Named("notify")),
		cfg.RateLimit,
		log.Named("bot"),
	)

	// 7. gRPC-сервер.
	grpcServer := grpc.NewServer()
	botpb.RegisterBotServiceServer(grpcServer, service.NewBotService(dispatcher, log.Named("grpc")))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(botpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatal("listen grpc", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
			stop()
		}
	}()

	// 8. HTTP: живость и готовность.
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(sqlDB, log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	// 9. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	log.Info("shutting down")

	healthSrv.Shutdown()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}

	// дожидаемся уведомлений, отправленных последними командами
	dispatcher.Wait()
	log.Info("stopped")
}

// newNotifier выбирает транспорт уведомлений. Если брокер недоступен, уведомления
// пишутся в лог: их потеря не должна мешать записи клиентов.
func newNotifier(ctx context.Context, cfg config.NotifyConfig, log *zap.Logger) (notify.Notifier, func()) {
	fallback := notify.NewLogNotifier(log.Named("notify"))

	switch cfg.Driver {
	case config.NotifyAMQP:
		conn, ch, err := notify.DialAMQP(cfg.AMQPURL, cfg.Queue)
		if err != nil {
			log.Warn("amqp unavailable, notifications go to log", zap.Error(err))
			return fallback, func() {}
		}
		log.Info("notifications via amqp", zap.String("queue", cfg.Queue))
		return notify.NewAMQPNotifier(ch, cfg.Queue), func() {
			ch.Close()
			conn.Close()
		}

	case config.NotifyRedis:
		client, err := notify.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn("redis unavailable, notifications go to log", zap.Error(err))
			return fallback, func() {}
		}
		log.Info("notifications via redis", zap.String("key", cfg.RedisKey))
		return notify.NewRedisNotifier(client, cfg.RedisKey), func() { client.Close() }

	default:
		return fallback, func() {}
	}
}
