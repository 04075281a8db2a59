package main

import (
	config "github.com/NordCoder/Krymon/internal/config/krymon"
	"github.com/NordCoder/Krymon/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(obs.LogConfig{
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
		App:     cfg.App.Name,
		Env:     cfg.App.Env,
		Version: cfg.App.Version,
	})
}
