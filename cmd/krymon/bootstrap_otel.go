package main

import (
	"context"

	config "github.com/NordCoder/Krymon/internal/config/krymon"
	"github.com/NordCoder/Krymon/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	o, err := obs.SetupOTel(ctx, obs.OTELConfig{
		Enable:      cfg.OTel.Enable,
		Endpoint:    cfg.OTel.OTLPEndpoint,
		ServiceName: cfg.OTel.ServiceName,
		SampleRatio: cfg.OTel.SampleRatio,
	})
	if err != nil {
		return nil, err
	}
	return o.Shutdown, nil
}
