// Package stats formats the Unlambda interpreter's verbosity-gated
// diagnostics (spec.md §6) and wires them into cell.Heap as a
// cell.Observer, backed by a zap logger configured to emit bare message
// lines with no timestamp, level, or caller decoration.
package stats

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"unlambda_go/pkg/cell"
)

// Level mirrors the reference interpreter's verbosity enum.
type Level int

const (
	LevelNone Level = iota
	LevelStats
	LevelMajorGC
	LevelMinorGC
)

// Reporter emits GC diagnostics at LevelMajorGC/LevelMinorGC and the
// final timing summary at LevelStats, all to w (stderr in main.go).
type Reporter struct {
	level  Level
	log    *zap.Logger
	evalAt time.Time
}

// NewReporter builds a Reporter at the given verbosity writing to w.
func NewReporter(level Level, w io.Writer) *Reporter {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "M",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	return &Reporter{level: level, log: zap.New(core)}
}

// MinorGC implements cell.Observer.
func (r *Reporter) MinorGC(survivors int) {
	if r.level >= LevelMinorGC {
		r.log.Sugar().Infof("Minor GC: %d", survivors)
	}
}

// MajorGC implements cell.Observer.
func (r *Reporter) MajorGC(freed, total int) {
	if r.level >= LevelMajorGC {
		r.log.Sugar().Infof("%d / %d cells freed", freed, total)
	}
}

// MarkEvalStart records the start of the reduction loop, for the
// eventual eval/gc time split in the stats summary.
func (r *Reporter) MarkEvalStart() {
	r.evalAt = time.Now()
}

// ReportStats prints the spec.md §6 stats block if verbosity >= LevelStats.
func (r *Reporter) ReportStats(h *cell.Heap) {
	if r.level < LevelStats {
		return
	}
	snap := h.StatsSnapshot()
	total := time.Since(r.evalAt).Seconds()
	gcTime := time.Duration(snap.GCTimeNanos).Seconds()
	evalTime := total - gcTime

	sugar := r.log.Sugar()
	sugar.Infof("  total eval time --- %5.2f sec.", evalTime)
	sugar.Infof("  total gc time   --- %5.2f sec.", gcTime)
	sugar.Infof("  major gc count  --- %5d", snap.MajorGCCount)
	sugar.Infof("  minor gc count  --- %5d", snap.MinorGCCount)
}
