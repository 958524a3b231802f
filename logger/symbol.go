package logger

import (
	"github.com/teranos/kgbridge/sym"
	"go.uber.org/zap"
)

// Symbol-aware logging helpers.
// These attach the subsystem glyph as a structured field, not in the message.
//
// Usage:
//
//	// Instead of:
//	log.Infow(sym.IX + " import finished", "triples", n)
//
//	// Use:
//	logger.WithSymbol(log, sym.IX).Infow("import finished", "triples", n)
//
// This makes logs queryable by subsystem and keeps messages clean.

// WithSymbol returns l decorated with the glyph field
func WithSymbol(l *zap.SugaredLogger, glyph string) *zap.SugaredLogger {
	if l == nil {
		l = Logger
	}
	return l.With(FieldSymbol, glyph)
}

// StoreLogger names l for a store backend and tags it with the storage glyph
func StoreLogger(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if l == nil {
		l = Logger
	}
	return WithSymbol(l.Named(name), sym.DB)
}
