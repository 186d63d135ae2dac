package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohammadsarwary/content-craft-ai/internal/config"
	"go.uber.org/zap"
)

// Application 负责 HTTP Server 的生命周期。
type Application struct {
	cfg    *config.Config
	logger *zap.Logger
	server *http.Server
}

// New 构建应用实例，并初始化 HTTP 服务配置。
// WriteTimeout 需大于后端调用超时，否则长耗时的品牌训练会被截断。
func New(cfg *config.Config, logger *zap.Logger, engine *gin.Engine) *Application {
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:    cfg,
		logger: logger,
		server: httpServer,
	}
}

// Run 监听配置地址并提供服务，直至 ctx 取消。
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve 在给定 listener 上提供服务，ctx 取消时优雅退出。
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info("starting http server", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		return a.shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *Application) shutdown(ctx context.Context) error {
	a.logger.Info("shutting down http server")
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
