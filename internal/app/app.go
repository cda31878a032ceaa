// Package app is the composition root of the service. It builds the
// configuration, logger, user registry, background remover, HTTP router
// and the optional gRPC health server, and runs them until a shutdown
// signal arrives.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/patric-chuzhbe/instabackend/internal/config"
	"github.com/patric-chuzhbe/instabackend/internal/grpcserver"
	"github.com/patric-chuzhbe/instabackend/internal/ipchecker"
	"github.com/patric-chuzhbe/instabackend/internal/logger"
	"github.com/patric-chuzhbe/instabackend/internal/registry"
	"github.com/patric-chuzhbe/instabackend/internal/router"
	"github.com/patric-chuzhbe/instabackend/internal/service"
	"github.com/patric-chuzhbe/instabackend/internal/usersremover"
)

// App owns every long-lived component of the running process.
type App struct {
	cfg          *config.Config
	registry     *registry.Registry
	usersRemover *usersremover.UsersRemover
	httpHandler  http.Handler
	healthServer *health.Server
}

// New builds the application. Options are passed to config.New.
func New(configOptions ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(configOptions...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Init(app.cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	app.registry = registry.New()
	app.usersRemover = usersremover.New(
		app.registry,
		app.cfg.ChannelCapacity,
		app.cfg.DelayBetweenQueueFetches,
	)

	app.httpHandler = router.New(
		service.New(app.registry, app.usersRemover),
		app.cfg.ServiceName,
		checker,
	)
	app.healthServer = grpcserver.NewHealthServer(app.cfg.ServiceName)

	return app, nil
}

// Run binds the listeners and serves until SIGINT/SIGTERM or a server failure.
// A bind failure is returned immediately.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.serve(ctx)
}

func (a *App) serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.RunAddr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", a.cfg.RunAddr, err)
	}

	var grpcServer *grpc.Server
	var grpcLis net.Listener
	if a.cfg.GRPCAddr != "" {
		grpcServer, grpcLis, err = grpcserver.NewGRPCServer(a.cfg.GRPCAddr, a.healthServer)
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("binding gRPC %s: %w", a.cfg.GRPCAddr, err)
		}
	}

	removerCtx, stopRemover := context.WithCancel(context.Background())
	defer stopRemover()
	a.usersRemover.Run(removerCtx)

	server := &http.Server{Handler: a.httpHandler}
	serverErrCh := make(chan error, 2)
	go func() {
		serverErrCh <- server.Serve(lis)
	}()
	if grpcServer != nil {
		go func() {
			serverErrCh <- grpcServer.Serve(grpcLis)
		}()
		logger.Log.Infoln("gRPC health server running", "addr", grpcLis.Addr().String())
	}

	fmt.Printf("Server running on http://%s\n", lis.Addr().String())
	logger.Log.Infoln("server running", "RunAddr", lis.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal, stopping servers...")
	case err := <-serverErrCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	a.healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown error: %w", err))
	}
	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			grpcServer.Stop()
		}
	}

	stopRemover()
	select {
	case <-a.usersRemover.Done():
	case <-shutdownCtx.Done():
		logger.Log.Warnln("users remover did not finish in time", zap.Error(shutdownCtx.Err()))
	}

	return runErr
}

// Close flushes the logger.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
