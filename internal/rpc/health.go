package rpc

import (
	"context"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName имя сервиса в протоколе grpc.health.v1
const ServiceName = "traffic.counter.v1.Counter"

// HealthChecker проверяет доступность зависимостей сервиса
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthServer gRPC сервер проверки здоровья. Статус отражает доступность сервиса детекции.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *logrus.Logger
}

// NewHealthServer создает gRPC сервер со службой grpc.health.v1
func NewHealthServer(logger *logrus.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	s := &HealthServer{server: srv, health: hs, logger: logger}
	s.SetServing(true)
	return s
}

// Serve принимает соединения, пока сервер не остановят
func (s *HealthServer) Serve(lis net.Listener) error {
	s.logger.Infof("gRPC health сервер запущен на %s", lis.Addr())
	return s.server.Serve(lis)
}

// SetServing выставляет статус для сервиса и для сервера в целом
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch периодически опрашивает checker и обновляет статус, пока не отменят ctx
func (s *HealthServer) Watch(ctx context.Context, checker HealthChecker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := checker.CheckHealth(checkCtx)
		cancel()

		if healthy := err == nil; healthy != serving {
			serving = healthy
			if healthy {
				s.logger.Info("Сервис детекции снова доступен")
			} else {
				s.logger.Warnf("Сервис детекции недоступен: %v", err)
			}
		}
		s.SetServing(serving)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop останавливает сервер, дожидаясь завершения активных вызовов
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
