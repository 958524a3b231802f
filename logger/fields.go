package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across kgbridge.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRequestID = "request_id"

	// Components
	FieldComponent = "component"
	FieldBackend   = "store_backend"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStage     = "stage"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount    = "count"
	FieldSize     = "size"
	FieldTriples  = "triples"
	FieldNodes    = "nodes"
	FieldEdges    = "edges"
	FieldInferred = "inferred"
	FieldRounds   = "rounds"

	// Status
	FieldStatus = "status"

	// Files and paths
	FieldFile = "file"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"

	// RDF-specific
	FieldSymbol    = "symbol"    // glyph of the subsystem (⨳, ⋈, ⊨, ⊔)
	FieldFormat    = "format"    // detected RDF syntax
	FieldReasoner  = "reasoner"  // reasoner type token
	FieldPredicate = "predicate" // predicate IRI
	FieldKey       = "key"       // graph node key
	FieldRule      = "rule"      // rule name
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext decorates base with the fields carried by ctx.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	imp := graph.NewImporter(store, logger.ComponentLogger("graph.import"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
