package flows

import "context"

// Deps groups flow dependency sets. The root engine builds this once and
// delegates its methods to the matching flow.
type Deps struct {
	Login   LoginDeps
	Restore RestoreDeps
	Logout  LogoutDeps
}

// AuditFunc emits one audit event. metadata is only called when auditing is
// enabled.
type AuditFunc func(ctx context.Context, event string, success bool, subject string, err error, metadata func() map[string]string)

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}
