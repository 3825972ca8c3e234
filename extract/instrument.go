package extract

import (
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Instrumentation accumulates call timings. Each call measures with its own span value,
// so concurrent extractions never share scratch state; only the totals are shared.
type Instrumentation struct {
	logger *zap.Logger

	calls     atomic.Int64
	failures  atomic.Int64
	fallbacks atomic.Int64
	total     atomic.Duration
	max       atomic.Duration
}

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Calls     int64
	Failures  int64
	Fallbacks int64
	Total     time.Duration
	Max       time.Duration
}

func (s Stats) Mean() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

func NewInstrumentation(logger *zap.Logger) *Instrumentation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Instrumentation{logger: logger}
}

type span struct {
	in    *Instrumentation
	op    string
	start time.Time
}

// begin is safe on a nil receiver; the returned span then records nothing.
func (in *Instrumentation) begin(op string) span {
	if in == nil {
		return span{}
	}
	return span{in: in, op: op, start: time.Now()}
}

func (s span) end(err error) {
	if s.in == nil {
		return
	}
	d := time.Since(s.start)
	s.in.calls.Inc()
	s.in.total.Add(d)
	if err != nil {
		s.in.failures.Inc()
	}
	for {
		old := s.in.max.Load()
		if d <= old || s.in.max.CompareAndSwap(old, d) {
			break
		}
	}
	s.in.logger.Debug("Extraction timing", zap.String("op", s.op), zap.Duration("took", d), zap.Bool("failed", err != nil))
}

func (in *Instrumentation) fallback() {
	if in != nil {
		in.fallbacks.Inc()
	}
}

func (in *Instrumentation) Snapshot() Stats {
	if in == nil {
		return Stats{}
	}
	return Stats{
		Calls:     in.calls.Load(),
		Failures:  in.failures.Load(),
		Fallbacks: in.fallbacks.Load(),
		Total:     in.total.Load(),
		Max:       in.max.Load(),
	}
}
