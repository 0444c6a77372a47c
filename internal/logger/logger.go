// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the structured logger shared by the server and
// client binaries: severities TRACE through OFF on top of log/slog, text
// or JSON output, and optional file rotation via lumberjack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tecnicofs-project/tecnicofs/cfg"
)

const textTimeFormat = "01/02/2006 15:04:05.000000"

// loggerFactory owns the current output destination and format, and
// knows how to build a handler for it. defaultLoggerFactory/defaultLogger
// are package-level so the free functions (Tracef, Debugf, ...) can log
// without callers threading a *Logger through everything, matching how
// this is used from deep inside the dispatcher and transport layers.
type loggerFactory struct {
	file            *lumberjack.Logger
	sysWriter       io.Writer
	format          string
	level           cfg.LogSeverity
	logRotateConfig cfg.LogRotateConfig
}

var (
	defaultLoggerFactory = &loggerFactory{
		sysWriter: os.Stderr,
		format:    "text",
		level:     cfg.InfoLogSeverity,
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, newProgramLevel(cfg.InfoLogSeverity), ""))
)

func newProgramLevel(severity cfg.LogSeverity) *slog.LevelVar {
	v := new(slog.LevelVar)
	setLoggingLevel(severity, v)
	return v
}

// createJsonOrTextHandler builds a slog.Handler writing to w in either
// "json" or "text" format, with severity/time/message keys and a JSON
// timestamp shaped as {"seconds":.., "nanos":..}. msgPrefix is prepended
// to every message, so a caller that owns a dedicated section of the log
// doesn't need to repeat it at every call site.
func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, msgPrefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr(f.format),
	}

	var base slog.Handler
	if f.format == "json" {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	if msgPrefix == "" {
		return base
	}
	return &prefixHandler{inner: base, prefix: msgPrefix}
}

func replaceAttr(format string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey:
			if format == "json" {
				t := a.Value.Time()
				return slog.Attr{Key: "timestamp", Value: slog.GroupValue(
					slog.Int64("seconds", t.Unix()),
					slog.Int64("nanos", int64(t.Nanosecond())),
				)}
			}
			return slog.Attr{Key: "time", Value: slog.StringValue(a.Value.Time().Format(textTimeFormat))}
		case slog.LevelKey:
			level, _ := a.Value.Any().(slog.Level)
			name, ok := levelNames[level]
			if !ok {
				name = level.String()
			}
			return slog.Attr{Key: "severity", Value: slog.StringValue(name)}
		case slog.MessageKey:
			return slog.Attr{Key: "message", Value: a.Value}
		}
		return a
	}
}

// prefixHandler wraps another slog.Handler, prepending a fixed prefix to
// every record's message before it reaches the inner handler.
type prefixHandler struct {
	inner  slog.Handler
	prefix string
}

func (h *prefixHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *prefixHandler) Handle(ctx context.Context, r slog.Record) error {
	nr := slog.NewRecord(r.Time, r.Level, h.prefix+r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(a)
		return true
	})
	return h.inner.Handle(ctx, nr)
}

func (h *prefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prefixHandler{inner: h.inner.WithAttrs(attrs), prefix: h.prefix}
}

func (h *prefixHandler) WithGroup(name string) slog.Handler {
	return &prefixHandler{inner: h.inner.WithGroup(name), prefix: h.prefix}
}

// SetLogFormat switches the global logger's output format ("text" or
// "json", defaulting to "json" for anything else) and rebuilds the
// default logger and its handler accordingly.
func SetLogFormat(format string) {
	if format != "text" {
		format = "json"
	}
	defaultLoggerFactory.format = format
	rebuildDefaultLogger()
}

// InitLogFile points the default logger at the file named by
// logCfg.FilePath, rotating it through lumberjack according to
// logCfg.LogRotate. If FilePath is empty, logs continue to stderr.
func InitLogFile(logCfg cfg.LoggingConfig) error {
	defaultLoggerFactory.format = logCfg.Format
	defaultLoggerFactory.level = logCfg.Severity
	defaultLoggerFactory.logRotateConfig = logCfg.LogRotate

	if logCfg.FilePath == "" {
		defaultLoggerFactory.file = nil
		defaultLoggerFactory.sysWriter = os.Stderr
		rebuildDefaultLogger()
		return nil
	}

	rotator := &lumberjack.Logger{
		Filename:   string(logCfg.FilePath),
		MaxSize:    logCfg.LogRotate.MaxFileSizeMB,
		MaxBackups: logCfg.LogRotate.BackupFileCount,
		Compress:   logCfg.LogRotate.Compress,
	}
	defaultLoggerFactory.file = rotator
	defaultLoggerFactory.sysWriter = rotator
	rebuildDefaultLogger()
	return nil
}

func rebuildDefaultLogger() {
	w := defaultLoggerFactory.sysWriter
	if w == nil {
		w = os.Stderr
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, newProgramLevel(defaultLoggerFactory.level), ""))
}

func Tracef(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, args...))
}
func Debugf(format string, args ...any) { defaultLogger.Debug(fmt.Sprintf(format, args...)) }
func Infof(format string, args ...any)  { defaultLogger.Info(fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...any)  { defaultLogger.Warn(fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...any) { defaultLogger.Error(fmt.Sprintf(format, args...)) }
