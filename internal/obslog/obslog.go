// Package obslog wraps a *slog.Logger with the structured fields the
// pipeline stages share, so every stage/transform log line carries the
// same keys (stage, node_count, edge_count, transform) rather than
// ad hoc attributes chosen per call site.
package obslog

import (
	"log/slog"

	"github.com/opcycle/taskgraph/core"
)

// Logger wraps a *slog.Logger, defaulting to slog.Default() when nil is
// passed to New.
type Logger struct {
	l *slog.Logger
}

// New wraps l, or slog.Default() if l is nil.
func New(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{l: l}
}

// StageStart logs a stage boundary at Info with the graph's current size.
func (log *Logger) StageStart(stage string, g *core.Graph) {
	log.l.Info("stage started", slog.String("stage", stage),
		slog.Int("node_count", g.NodeCount()), slog.Int("edge_count", g.EdgeCount()))
}

// StageDone logs a stage boundary at Info with the graph's size after the
// stage ran.
func (log *Logger) StageDone(stage string, g *core.Graph) {
	log.l.Info("stage completed", slog.String("stage", stage),
		slog.Int("node_count", g.NodeCount()), slog.Int("edge_count", g.EdgeCount()))
}

// TransformIteration logs one fixpoint-loop pass of a named transform at
// Debug, reporting whether it changed the graph.
func (log *Logger) TransformIteration(stage, transform string, g *core.Graph, changed bool) {
	log.l.Debug("transform iteration", slog.String("stage", stage), slog.String("transform", transform),
		slog.Int("node_count", g.NodeCount()), slog.Int("edge_count", g.EdgeCount()), slog.Bool("changed", changed))
}

// Warn logs a §7 warning (never fatal) at Warn with its message.
func (log *Logger) Warn(stage, msg string, args ...any) {
	all := append([]any{slog.String("stage", stage)}, args...)
	log.l.Warn(msg, all...)
}
