// Package server wires the configured storage, token handling and both
// transports together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/statelessauth/internal/common"
	"github.com/dmitrijs2005/statelessauth/internal/logging"
	"github.com/dmitrijs2005/statelessauth/internal/server/auth"
	"github.com/dmitrijs2005/statelessauth/internal/server/config"
	"github.com/dmitrijs2005/statelessauth/internal/server/httpapi"
	"github.com/dmitrijs2005/statelessauth/internal/server/metrics"
	"github.com/dmitrijs2005/statelessauth/internal/server/passwords"
	"github.com/dmitrijs2005/statelessauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/statelessauth/internal/server/services"

	gs "github.com/dmitrijs2005/statelessauth/internal/server/grpc"
)

const (
	generatedSecretLength = 64
	shutdownTimeout       = 10 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.RepositoryManager
	userService *services.UserService
	authService *auth.Service
	httpServer  *http.Server
	grpcServer  *gs.GRPCServer
}

// NewApp builds every component from c. Logs go to logOut.
func NewApp(c *config.Config, logOut io.Writer) (*App, error) {
	logger := logging.NewFromLevel(c.LogLevel, logOut)
	ctx := context.Background()

	secret, err := c.Secret()
	if err != nil {
		return nil, err
	}
	if secret == nil {
		secret = common.GenerateRandByteArray(generatedSecretLength)
		logger.Warn(ctx, "no secret key configured, using a random one; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenHandler(secret, c.SigningAlgorithm)
	common.WipeByteArray(secret)
	if err != nil {
		return nil, fmt.Errorf("token handler init error: %w", err)
	}

	repos, err := repomanager.New(c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	hasher, err := passwords.NewHasher(c.BcryptCost)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	m := metrics.New()
	authService := auth.NewService(tokens, c.TokenValidityDuration, logger, auth.WithRecorder(m))
	userService := services.NewUserService(repos, hasher, logger, services.WithLoginRecorder(m))
	api := httpapi.NewHandler(userService, authService, m, m.Handler(), logger)

	return &App{
		config:      c,
		logger:      logger,
		repos:       repos,
		userService: userService,
		authService: authService,
		httpServer: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, authService, logger),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// prepare migrates storage and seeds the default accounts if enabled.
func (app *App) prepare(ctx context.Context) error {
	if err := app.repos.RunMigrations(ctx); err != nil {
		return err
	}
	if app.config.SeedDefaultUsers {
		if err := app.userService.SeedDefaults(ctx); err != nil {
			return fmt.Errorf("seed default users: %w", err)
		}
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := app.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. It returns the first server error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.repos.Close()

	app.logger.Info(ctx, "Starting app...", "algorithm", app.config.SigningAlgorithm, "token_validity", app.config.TokenValidityDuration.String())

	app.initSignalHandler(ctx, cancelFunc)

	if err := app.prepare(ctx); err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() { firstErr = err })
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		fail(app.startHTTPServer(ctx))
	}()
	go func() {
		defer wg.Done()
		fail(app.grpcServer.Run(ctx))
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}
