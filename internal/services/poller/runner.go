package poller

import (
	"context"
	"time"

	"github.com/NordCoder/Krymon/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

type Runner struct {
	Log    *zap.Logger
	UC     *Usecase
	Period time.Duration

	mCycles  prometheus.Counter
	mErr     prometheus.Counter
	mProbes  *prometheus.CounterVec
	mLoopDur prometheus.Histogram
}

func New(log *zap.Logger, uc *Usecase, period time.Duration, reg prometheus.Registerer) *Runner {
	f := promauto.With(reg)
	return &Runner{
		Log:    log,
		UC:     uc,
		Period: period,
		mCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "krymon_poll_cycles_total", Help: "Poll cycles started",
		}),
		mErr: f.NewCounter(prometheus.CounterOpts{
			Name: "krymon_poll_errors_total", Help: "Poll cycles that failed",
		}),
		mProbes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "krymon_probes_total", Help: "Probe outcomes by status",
		}, []string{"status"}),
		mLoopDur: f.NewHistogram(prometheus.HistogramOpts{
			Name: "krymon_poll_cycle_duration_seconds", Help: "Poll cycle duration",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Run drives cycles until ctx is done. The next timer is armed only after the
// previous cycle has settled, so cycles never overlap and the period is
// measured from completion. A cycle already running when ctx is cancelled is
// allowed to finish.
func (r *Runner) Run(ctx context.Context) error {
	timer := time.NewTimer(r.Period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		r.tick(context.WithoutCancel(ctx))
		timer.Reset(r.Period)
	}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	r.mCycles.Inc()

	res, err := r.UC.Cycle(ctx)
	r.mLoopDur.Observe(time.Since(start).Seconds())
	if err != nil {
		r.mErr.Inc()
		obs.WithTrace(ctx, r.Log).Error("failed to update list of services", zap.Error(err))
		return
	}
	if res.Skipped {
		r.Log.Debug("no persisted services, cycle skipped")
		return
	}

	r.mProbes.WithLabelValues("OK").Add(float64(res.OK))
	r.mProbes.WithLabelValues("FAIL").Add(float64(res.Fail))
	r.Log.Info("updated statuses of all services",
		zap.Int("total", res.Total), zap.Int("ok", res.OK), zap.Int("fail", res.Fail),
		zap.Duration("took", time.Since(start)),
	)
}
