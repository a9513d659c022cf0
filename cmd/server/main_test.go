package main

import (
	"io"
	"testing"

	"github.com/Ashenafi-pixel/arcade-launcher/config"
	"github.com/spf13/pflag"
)

func TestParseFlags_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.GamesDir = "/from/env"
	fs := pflag.NewFlagSet("launcher", pflag.ContinueOnError)
	err := parseFlags(fs, cfg, []string{"-p", "8080", "--kiosk", "--no-extensions", "--log-format=console"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || !cfg.Kiosk || !cfg.KioskNoExtensions || cfg.LogFormat != "console" {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.GamesDir != "/from/env" {
		t.Errorf("GamesDir = %q, want the loaded value kept", cfg.GamesDir)
	}
}

func TestParseFlags_Unknown(t *testing.T) {
	fs := pflag.NewFlagSet("launcher", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := parseFlags(fs, config.Default(), []string{"--bogus"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := newLogger(format)
		if err != nil || l == nil {
			t.Errorf("newLogger(%q) = %v, %v", format, l, err)
		}
	}
}
