package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"decomp-history/core/loader"
	"decomp-history/core/logger"
	"decomp-history/core/middleware/auth"
	"decomp-history/core/middleware/rayid"
	"decomp-history/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "decomp-history/docs/swagger"
)

// @title decomp-history status API
// @version 1.0
// @description Read-only view of the decompiled version history.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the read-only status API",
	Long:  `Starts the HTTP server exposing repository status, the pending plan and recent runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		logg := a.logger

		if err := a.cfg.Server.Validate(); err != nil {
			return err
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager(logg)
		mgr.Register(status.NewFeature(a.history, a.runs(), logg))

		// RayID first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if _, err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", a.cfg.Server.Address()))
			errCh <- app.Listen(a.cfg.Server.Address())
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)

		select {
		case err := <-errCh:
			return err
		case <-sig:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
