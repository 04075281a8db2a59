package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Krymon/internal/domain/service"
	"github.com/NordCoder/Krymon/internal/services/prober"
	"github.com/NordCoder/Krymon/internal/services/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 16

type CycleResult struct {
	Skipped bool
	Total   int
	OK      int
	Fail    int
}

type Usecase struct {
	Registry    *registry.Usecase
	Prober      prober.Prober
	Concurrency int
	Clock       func() time.Time
}

func NewUC(reg *registry.Usecase, p prober.Prober, concurrency int) *Usecase {
	return &Usecase{
		Registry:    reg,
		Prober:      p,
		Concurrency: concurrency,
		Clock:       func() time.Time { return time.Now().UTC() },
	}
}

// Cycle loads the registry, probes every service and persists the outcome.
// Without a persisted document there is nothing to probe.
func (u *Usecase) Cycle(ctx context.Context) (CycleResult, error) {
	tr := otel.Tracer("poller.uc")
	ctx, span := tr.Start(ctx, "poller.cycle")
	defer span.End()

	store := u.Registry.Store()
	exists, err := store.Exists(ctx)
	if err != nil {
		span.RecordError(err)
		return CycleResult{}, fmt.Errorf("check document: %w", err)
	}
	if !exists {
		span.SetAttributes(attribute.Bool("cycle.skipped", true))
		return CycleResult{Skipped: true}, nil
	}

	current, err := store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return CycleResult{}, fmt.Errorf("load registry: %w", err)
	}

	probed := u.probeAll(ctx, current.Services)

	res := CycleResult{Total: len(probed)}
	for _, s := range probed {
		if s.Status == service.StatusOK {
			res.OK++
		} else {
			res.Fail++
		}
	}
	span.SetAttributes(
		attribute.Int("services.total", res.Total),
		attribute.Int("services.ok", res.OK),
		attribute.Int("services.fail", res.Fail),
	)

	if _, err := u.Registry.ApplyProbes(ctx, probed); err != nil {
		span.RecordError(err)
		return res, err
	}
	return res, nil
}

// probeAll keeps results in registry order regardless of completion order.
func (u *Usecase) probeAll(ctx context.Context, services []service.Service) []service.Service {
	out := make([]service.Service, len(services))
	limit := u.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, s := range services {
		g.Go(func() error {
			out[i] = s.Checked(u.probeOne(ctx, s), u.Clock())
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (u *Usecase) probeOne(ctx context.Context, s service.Service) (status service.Status) {
	ctx, span := otel.Tracer("poller.uc").Start(ctx, "poller.probe",
		trace.WithAttributes(
			attribute.String("service.id", s.ID),
			attribute.String("service.url", s.URL),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			span.RecordError(fmt.Errorf("probe panic: %v", r))
			status = service.StatusFail
		}
		span.SetAttributes(attribute.String("probe.status", string(status)))
	}()
	return u.Prober.Probe(ctx, s.URL)
}
