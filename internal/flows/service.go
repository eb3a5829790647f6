package flows

import (
	"context"

	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/session"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.Authenticate != nil && s.deps.Restore.LoadToken != nil && s.deps.Logout.ClearToken != nil
}

func (s Service) Login(ctx context.Context, creds catalog.Credentials) (*session.Session, error) {
	return RunLogin(ctx, creds, s.deps.Login)
}

func (s Service) Restore(ctx context.Context) (RestoreResult, error) {
	return RunRestore(ctx, s.deps.Restore)
}

func (s Service) Logout(ctx context.Context, req LogoutRequest) error {
	return RunLogout(ctx, req, s.deps.Logout)
}
