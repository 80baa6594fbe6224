package service

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/webwatch/platform/internal/config"
	"github.com/webwatch/platform/pkg/certutil"
	"github.com/webwatch/platform/pkg/netutil"
	"github.com/webwatch/platform/pkg/protocol"
)

type httpServer_Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Controllers []protocol.HttpResolvable `group:"http.controller"`
	Config      *config.Config
	Logger      *slog.Logger
}

func httpErrorHandler(e *echo.Echo, logger *slog.Logger) func(err error, c echo.Context) {
	return func(err error, c echo.Context) {
		logger.Error(err.Error(), slog.String("request", fmt.Sprintf("%+v", c.Request())))
		e.DefaultHTTPErrorHandler(err, c)
	}
}

func httpServer(params httpServer_Params) error {
	cfg := params.Config.Server

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = httpErrorHandler(router, params.Logger)
	router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
	}))

	router.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Backend Running!")
	})
	router.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	for _, controller := range params.Controllers {
		if err := controller.Resolve(router); err != nil {
			return err
		}
	}

	lanIP := netutil.LanIP()
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	tlsAddr := net.JoinHostPort(cfg.Host, cfg.TLS.Port)

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.TLS.Enabled && cfg.TLS.SelfSigned {
				if err := certutil.EnsureSelfSigned(cfg.TLS.CertFile, cfg.TLS.KeyFile, []string{lanIP}); err != nil {
					return fmt.Errorf("ensure tls cert: %w", err)
				}
			}

			g := new(errgroup.Group)
			g.Go(func() error {
				return router.Start(addr)
			})
			if cfg.TLS.Enabled {
				g.Go(func() error {
					return router.StartTLS(tlsAddr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
				})
			}
			go func() {
				if err := g.Wait(); err != nil && err != http.ErrServerClosed {
					params.Logger.Error("http server stopped", slog.String("err", err.Error()))
				}
			}()

			params.Logger.Info("signaling server listening",
				slog.String("addr", addr),
				slog.String("lan_ip", lanIP),
				slog.Bool("tls", cfg.TLS.Enabled))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Shutdown(ctx)
		},
	})
	return nil
}

var HttpModule = fx.Module("http", fx.Invoke(httpServer))
