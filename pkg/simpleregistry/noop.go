package simpleregistry

import (
	"context"
	"errors"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// RegistryInitialized does nothing and returns nil
func (n *NoopEventSink) RegistryInitialized(ctx context.Context, info *RegistryInfo) error {
	return nil
}

// OracleReferenceUpdated does nothing and returns nil
func (n *NoopEventSink) OracleReferenceUpdated(ctx context.Context, reference string, updatedBy Identity) error {
	return nil
}

// ContentRegistered does nothing and returns nil
func (n *NoopEventSink) ContentRegistered(ctx context.Context, content *Content) error {
	return nil
}

// OwnershipTransferred does nothing and returns nil
func (n *NoopEventSink) OwnershipTransferred(ctx context.Context, content *Content, previousOwner Identity) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other action
// Useful for development and debugging
type LoggingEventSink struct {
	logger Logger
}

// Logger interface for logging events
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger Logger) EventSink {
	return &LoggingEventSink{logger: logger}
}

// RegistryInitialized logs the initialization event
func (l *LoggingEventSink) RegistryInitialized(ctx context.Context, info *RegistryInfo) error {
	l.logger.Infof("Registry initialized: admin=%s, oracle_reference=%q", info.Admin, info.OracleReference)
	return nil
}

// OracleReferenceUpdated logs the oracle reference change
func (l *LoggingEventSink) OracleReferenceUpdated(ctx context.Context, reference string, updatedBy Identity) error {
	l.logger.Infof("Oracle reference updated: reference=%q, by=%s", reference, updatedBy)
	return nil
}

// ContentRegistered logs the registration event
func (l *LoggingEventSink) ContentRegistered(ctx context.Context, content *Content) error {
	l.logger.Infof("Content registered: id=%d, hash=%s, owner=%s", content.ID, content.Hash, content.Owner)
	return nil
}

// OwnershipTransferred logs the transfer event
func (l *LoggingEventSink) OwnershipTransferred(ctx context.Context, content *Content, previousOwner Identity) error {
	l.logger.Infof("Ownership transferred: id=%d, from=%s, to=%s", content.ID, previousOwner, content.Owner)
	return nil
}

// MultiEventSink fans events out to several sinks. Every sink is invoked
// even when an earlier one fails; the errors are joined.
type MultiEventSink struct {
	sinks []EventSink
}

// NewMultiEventSink creates an event sink that forwards to all given sinks
func NewMultiEventSink(sinks ...EventSink) EventSink {
	return &MultiEventSink{sinks: sinks}
}

// RegistryInitialized forwards the event to all sinks
func (m *MultiEventSink) RegistryInitialized(ctx context.Context, info *RegistryInfo) error {
	var errs []error
	for _, sink := range m.sinks {
		errs = append(errs, sink.RegistryInitialized(ctx, info))
	}
	return errors.Join(errs...)
}

// OracleReferenceUpdated forwards the event to all sinks
func (m *MultiEventSink) OracleReferenceUpdated(ctx context.Context, reference string, updatedBy Identity) error {
	var errs []error
	for _, sink := range m.sinks {
		errs = append(errs, sink.OracleReferenceUpdated(ctx, reference, updatedBy))
	}
	return errors.Join(errs...)
}

// ContentRegistered forwards the event to all sinks
func (m *MultiEventSink) ContentRegistered(ctx context.Context, content *Content) error {
	var errs []error
	for _, sink := range m.sinks {
		errs = append(errs, sink.ContentRegistered(ctx, content))
	}
	return errors.Join(errs...)
}

// OwnershipTransferred forwards the event to all sinks
func (m *MultiEventSink) OwnershipTransferred(ctx context.Context, content *Content, previousOwner Identity) error {
	var errs []error
	for _, sink := range m.sinks {
		errs = append(errs, sink.OwnershipTransferred(ctx, content, previousOwner))
	}
	return errors.Join(errs...)
}
