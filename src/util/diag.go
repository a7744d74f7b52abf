package util

import (
	"go.uber.org/zap"

	"midir/src/ir/ssa"
)

// zapSink routes every diagnostic the core's simplifier raises through a
// structured zap logger, and into a RecordingSink so the driver host can
// export the same diagnostics as JSON afterward (see ExportDiagnostics).
// This is the injected "diagnostic sink" the design notes ask for, so the
// core itself never imports a logging package.
type zapSink struct {
	log *zap.Logger
	rec *ssa.RecordingSink
}

// NewZapSink builds the non-test DiagSink implementation: a console-
// encoded zap logger at info level, or debug level when verbose is set,
// tee'd into a RecordingSink retrievable with Recorded.
func NewZapSink(verbose bool) ssa.DiagSink {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		// A broken logger config must not take compilation down with it;
		// fall back to discarding diagnostics.
		return ssa.DiscardSink{}
	}
	return &zapSink{log: log, rec: &ssa.RecordingSink{}}
}

// Emit implements ssa.DiagSink.
func (s *zapSink) Emit(d ssa.Diagnostic) {
	fields := []zap.Field{
		zap.Uint32("line", d.Pos.Line),
		zap.Uint32("character", d.Pos.Character),
	}
	if d.Severity == ssa.SeverityError {
		s.log.Error(d.Message, fields...)
	} else {
		s.log.Warn(d.Message, fields...)
	}
	s.rec.Emit(d)
}

// Recorded returns the diagnostics seen so far, for ExportDiagnostics.
// Callers that built their sink through NewZapSink get one; any other
// ssa.DiagSink implementation (including a plain ssa.DiscardSink) yields
// an empty, valid RecordingSink.
func Recorded(sink ssa.DiagSink) *ssa.RecordingSink {
	if s, ok := sink.(*zapSink); ok {
		return s.rec
	}
	return &ssa.RecordingSink{}
}
