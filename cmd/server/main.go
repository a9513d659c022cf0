package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ashenafi-pixel/arcade-launcher/config"
	"github.com/Ashenafi-pixel/arcade-launcher/gamepad"
	"github.com/Ashenafi-pixel/arcade-launcher/kiosk"
	"github.com/Ashenafi-pixel/arcade-launcher/server"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// .env in the working directory, then one next to the binary's parent (packaged layout)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg := config.Load()
	if err := parseFlags(pflag.CommandLine, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg); err != nil {
		logger.Fatal("launcher stopped", zap.Error(err))
	}
}

// parseFlags lets command-line flags override the loaded config.
func parseFlags(fs *pflag.FlagSet, cfg *config.Config, args []string) error {
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.GamesDir, "games", cfg.GamesDir, "game library directory")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "launcher state directory")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "serve the frontend from this directory instead of the embedded copy")
	fs.BoolVar(&cfg.Kiosk, "kiosk", cfg.Kiosk, "open a fullscreen kiosk browser on start")
	fs.BoolVar(&cfg.KioskNoExtensions, "no-extensions", cfg.KioskNoExtensions, "disable browser extensions in kiosk mode")
	fs.StringVar(&cfg.KioskProfileDir, "profile-dir", cfg.KioskProfileDir, "fixed kiosk browser profile directory")
	fs.BoolVar(&cfg.NativeGamepads, "native-gamepads", cfg.NativeGamepads, "read host joysticks")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `log output: "json" or "console"`)
	return fs.Parse(args)
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		c := zap.NewDevelopmentConfig()
		c.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return c.Build()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, server.Deps{})
	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	url := fmt.Sprintf("http://localhost:%d/", ln.Addr().(*net.TCPAddr).Port)

	go func() {
		if err := srv.WatchLibrary(ctx); err != nil {
			zap.L().Warn("library watcher stopped", zap.Error(err))
		}
	}()

	if cfg.NativeGamepads {
		go func() {
			if err := srv.RunNativeGamepads(ctx, gamepad.NewNativeSource()); err != nil {
				zap.L().Warn("native gamepads stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Kiosk {
		go func() {
			err := kiosk.Launch(ctx, url, kiosk.Options{
				Browser:      cfg.KioskBrowser,
				ExtraArgs:    cfg.KioskBrowserArgs,
				NoExtensions: cfg.KioskNoExtensions,
				ProfileDir:   cfg.KioskProfileDir,
			})
			switch {
			case errors.Is(err, kiosk.ErrNoBrowser):
				return
			case err != nil:
				zap.L().Error("kiosk browser", zap.Error(err))
			}
			// Closing the kiosk window quits the launcher.
			stop()
		}()
	}

	return srv.Serve(ctx, ln)
}
