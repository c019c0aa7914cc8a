// Command bluenoise generates blue_noise.h (and blue_noise.c when built with
// the split tag) from 128_128_LDR_RG01_0.png in the working directory.
package main

import (
	"os"

	"github.com/lmittmann/tint"
	"golang.org/x/exp/slog"

	"github.com/dolanor/bluenoise"
)

func main() {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05.000",
	})
	log := slog.New(handler)

	cfg := bluenoise.DefaultConfig()
	cfg.Logger = log
	log.Info("generating", "input", cfg.InputPath, "mode", cfg.Mode)

	if err := bluenoise.Convert(cfg); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
