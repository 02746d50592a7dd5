// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides package scoped loggers over go-ethereum's log.
//
// Loggers resolve the root logger on every call, so handlers installed
// after package initialization take effect.
package log

import (
	"io"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes leveled key/value records.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
}

type logger struct {
	ctx []any
}

// WithContext returns a logger attaching ctx to every record.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

func (l *logger) with(ctx []any) []any {
	return append(l.ctx[:len(l.ctx):len(l.ctx)], ctx...)
}

func (l *logger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.with(ctx)...) }
func (l *logger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.with(ctx)...) }
func (l *logger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.with(ctx)...) }
func (l *logger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.with(ctx)...) }
func (l *logger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.with(ctx)...) }
func (l *logger) Crit(msg string, ctx ...any)  { ethlog.Root().Crit(msg, l.with(ctx)...) }

// Init installs a terminal handler writing to w as the root handler.
// verbosity follows the legacy levels, 0 crit to 5 trace.
func Init(w io.Writer, verbosity int, useColor bool) {
	h := ethlog.NewTerminalHandlerWithLevel(w, ethlog.FromLegacyLevel(verbosity), useColor)
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Discard silences all loggers.
func Discard() {
	ethlog.SetDefault(ethlog.NewLogger(ethlog.DiscardHandler()))
}
