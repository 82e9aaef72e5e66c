package worker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-api/internal/service/reminder"
	"github.com/jwalitptl/scheduling-api/pkg/timeutil"
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_sweeps_total",
		Help: "The total number of reminder sweep executions",
	}, []string{"window"})
	remindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_sent_total",
		Help: "The total number of reminders dispatched",
	}, []string{"window"})
	remindersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_failed_total",
		Help: "The total number of reminder dispatch failures",
	}, []string{"window"})
	absencesMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "absences_marked_total",
		Help: "The total number of appointments swept to ABSENT",
	})
	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reminder_sweep_duration_seconds",
		Help:    "Time spent per reminder sweep",
		Buckets: prometheus.DefBuckets,
	})
)

// ReminderWorker drives the reminder service on timers: both reminder
// windows every sweep interval, and the absence sweep once per day in the
// configured timezone.
type ReminderWorker struct {
	svc              *reminder.Service
	sweepInterval    time.Duration
	absenceSweepHour int
	loc              *time.Location
	logger           zerolog.Logger

	lastAbsenceDate string
}

func NewReminderWorker(svc *reminder.Service, sweepInterval time.Duration, absenceSweepHour int, loc *time.Location, logger zerolog.Logger) *ReminderWorker {
	return &ReminderWorker{
		svc:              svc,
		sweepInterval:    sweepInterval,
		absenceSweepHour: absenceSweepHour,
		loc:              loc,
		logger:           logger,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	w.logger.Info().Dur("interval", w.sweepInterval).Msg("starting reminder worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("shutting down reminder worker")
			return
		case <-ticker.C:
			w.runSweeps(ctx)
			w.maybeRunAbsenceSweep(ctx)
		}
	}
}

func (w *ReminderWorker) runSweeps(ctx context.Context) {
	timer := prometheus.NewTimer(sweepDuration)
	defer timer.ObserveDuration()

	if result, err := w.svc.Sweep24h(ctx); err != nil {
		w.logger.Error().Err(err).Msg("24h reminder sweep failed")
	} else {
		w.observe("24h", result)
	}

	if result, err := w.svc.Sweep3h(ctx); err != nil {
		w.logger.Error().Err(err).Msg("3h reminder sweep failed")
	} else {
		w.observe("3h", result)
	}
}

func (w *ReminderWorker) observe(window string, result *reminder.SweepResult) {
	sweepsTotal.WithLabelValues(window).Inc()
	remindersSent.WithLabelValues(window).Add(float64(result.Sent))
	remindersFailed.WithLabelValues(window).Add(float64(result.Failed))
}

// maybeRunAbsenceSweep runs the daily sweep once per timezone-local day,
// after the configured hour. The sweep itself is idempotent, so a worker
// restart at most repeats a no-op.
func (w *ReminderWorker) maybeRunAbsenceSweep(ctx context.Context) {
	now := time.Now().In(w.loc)
	if now.Hour() < w.absenceSweepHour {
		return
	}

	today := timeutil.FormatDate(now)
	if w.lastAbsenceDate == today {
		return
	}

	marked, err := w.svc.SweepAbsences(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("absence sweep failed")
		return
	}

	w.lastAbsenceDate = today
	absencesMarked.Add(float64(marked))
}
