package domain

// Diagnostics receives user-facing messages about a run. Implementations
// decide about styling and suppression.
type Diagnostics interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopDiagnostics drops every message.
type NopDiagnostics struct{}

// Infof implements Diagnostics.
func (NopDiagnostics) Infof(string, ...any) {}

// Warnf implements Diagnostics.
func (NopDiagnostics) Warnf(string, ...any) {}

// Errorf implements Diagnostics.
func (NopDiagnostics) Errorf(string, ...any) {}
