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

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"portalchat/internal/config"
	"portalchat/internal/logging"
	"portalchat/internal/wire"
)

const serviceName = "portalchat"

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Info().Msg("no .env file found, using system environment variables")
	}

	closer, err := logging.Init(config.LoadConfig().Logging)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to configure logging")
	}
	if closer != nil {
		defer closer.Close()
	}

	app, cleanup, err := wire.InitializeApplication()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer cleanup()

	// Cancelling streamCtx ends every open event stream on shutdown.
	streamCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	server := &http.Server{
		BaseContext:    func(net.Listener) context.Context { return streamCtx },
		Addr:           net.JoinHostPort(app.Config.Server.Host, app.Config.Server.Port),
		Handler:        setupRouter(app),
		ReadTimeout:    time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(app.Config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	grpcServer, healthServer, err := startGRPC(app.Config)
	if err != nil {
		logging.Fatal().Err(err).Msg("gRPC server failed to start")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	if healthServer != nil {
		healthServer.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logging.Info().Int("subscribers", app.Hub.Size()).Msg("closing chat streams")
	stopStreams()
	if err := server.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("HTTP server forced to shut down")
		_ = server.Close()
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logging.Info().Msg("server stopped")
}

// startGRPC serves grpc.health.v1 and reflection on GRPC_PORT. An empty port disables it.
func startGRPC(cfg *config.Config) (*grpc.Server, *health.Server, error) {
	if cfg.Server.GRPCPort == "" {
		return nil, nil, nil
	}
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		return nil, nil, fmt.Errorf("listen on port %s: %w", cfg.Server.GRPCPort, err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(loggingUnaryInterceptor),
		grpc.StreamInterceptor(loggingStreamInterceptor),
	)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		logging.Info().Str("port", cfg.Server.GRPCPort).Msg("gRPC health server starting")
		if err := grpcServer.Serve(lis); err != nil {
			logging.Error().Err(err).Msg("gRPC server stopped")
		}
	}()
	return grpcServer, healthServer, nil
}

func loggingUnaryInterceptor(ctx context.Context, req interface{},
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	start := time.Now()
	resp, err := handler(ctx, req)

	ev := logging.Debug()
	if err != nil {
		ev = logging.Warn().Err(err)
	}
	ev.Str("method", info.FullMethod).Dur("duration", time.Since(start)).Msg("grpc call")
	return resp, err
}

func loggingStreamInterceptor(srv interface{}, stream grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {

	logging.Debug().Str("method", info.FullMethod).Msg("grpc stream started")
	err := handler(srv, stream)
	if err != nil {
		logging.Warn().Err(err).Str("method", info.FullMethod).Msg("grpc stream ended with error")
	} else {
		logging.Debug().Str("method", info.FullMethod).Msg("grpc stream completed")
	}
	return err
}
