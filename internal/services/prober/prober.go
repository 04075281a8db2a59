package prober

import (
	"context"
	"io"
	"net/http"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"go.uber.org/zap"
)

// drained before close so keep-alive connections can be reused
const maxDrain = 64 << 10

type Prober interface {
	Probe(ctx context.Context, url string) service.Status
}

type HTTPProber struct {
	Log       *zap.Logger
	Client    *http.Client
	UserAgent string
}

func New(log *zap.Logger, cfg Config) *HTTPProber {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPProber{Log: log, Client: NewHTTPClient(cfg), UserAgent: cfg.UserAgent}
}

// Probe issues one GET. Every failure mode collapses to StatusFail.
func (p *HTTPProber) Probe(ctx context.Context, url string) service.Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.Log.Debug("probe request rejected", zap.String("url", url), zap.Error(err))
		return service.StatusFail
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		p.Log.Debug("probe failed", zap.String("url", url), zap.Error(err))
		return service.StatusFail
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	return StatusFor(resp.StatusCode)
}

func StatusFor(code int) service.Status {
	if code >= 200 && code < 300 {
		return service.StatusOK
	}
	return service.StatusFail
}
