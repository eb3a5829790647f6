package commands

import (
	"fmt"
	"os"
	"time"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passwordEnv supplies the login password when --password is not given.
const passwordEnv = "GOCONSOLE_PASSWORD"

type sessionView struct {
	State      string `json:"state" yaml:"state"`
	Subject    string `json:"subject,omitempty" yaml:"subject,omitempty"`
	IssuedAt   string `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Remaining  string `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	RefreshDue bool   `json:"refresh_due" yaml:"refresh_due"`
}

type securityView struct {
	BaseURL           string `json:"base_url" yaml:"base_url"`
	TLS               bool   `json:"tls" yaml:"tls"`
	RequestTimeout    string `json:"request_timeout" yaml:"request_timeout"`
	RetryAttempts     int    `json:"retry_attempts" yaml:"retry_attempts"`
	BreakerEnabled    bool   `json:"breaker_enabled" yaml:"breaker_enabled"`
	BreakerState      string `json:"breaker_state" yaml:"breaker_state"`
	StoreBackend      string `json:"store_backend" yaml:"store_backend"`
	DurableStore      bool   `json:"durable_store" yaml:"durable_store"`
	AssumedTokenTTL   string `json:"assumed_token_ttl" yaml:"assumed_token_ttl"`
	RefreshThreshold  string `json:"refresh_threshold" yaml:"refresh_threshold"`
	AuditEnabled      bool   `json:"audit_enabled" yaml:"audit_enabled"`
	LogRedaction      bool   `json:"log_redaction" yaml:"log_redaction"`
	CredentialsMaxLen int    `json:"credentials_max_len" yaml:"credentials_max_len"`
}

type statusView struct {
	Session  sessionView  `json:"session" yaml:"session"`
	Security securityView `json:"security" yaml:"security"`
	Warnings []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newSessionView(engine *goConsole.Engine, s *session.Session) sessionView {
	v := sessionView{State: engine.State().String()}
	if s == nil {
		return v
	}
	v.Subject = s.Subject
	if !s.IssuedAt.IsZero() {
		v.IssuedAt = s.IssuedAt.UTC().Format(time.RFC3339)
	}
	v.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	v.Remaining = s.Remaining(time.Now()).Truncate(time.Second).String()
	v.RefreshDue = engine.ShouldRefresh(s)
	return v
}

func newSecurityView(engine *goConsole.Engine) securityView {
	r := engine.SecurityReport()
	return securityView{
		BaseURL:           r.BaseURL,
		TLS:               r.TLS,
		RequestTimeout:    r.RequestTimeout.String(),
		RetryAttempts:     r.RetryAttempts,
		BreakerEnabled:    r.BreakerEnabled,
		BreakerState:      engine.BreakerState(),
		StoreBackend:      r.StoreBackend,
		DurableStore:      r.DurableStore,
		AssumedTokenTTL:   r.AssumedTokenTTL.String(),
		RefreshThreshold:  r.RefreshThreshold.String(),
		AuditEnabled:      r.AuditEnabled,
		LogRedaction:      r.LogRedaction,
		CredentialsMaxLen: r.CredentialsMaxLen,
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var creds catalog.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Signs in to the admin API and stores the issued token in the configured
token store. The password is taken from --password, then ` + passwordEnv + `,
then an interactive prompt when stdin is a terminal.`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(false, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			if creds.Password == "" {
				creds.Password = os.Getenv(passwordEnv)
			}
			if creds.Password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				creds.Password = p
			}

			sess, err := engine.Login(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			return a.print(cmd.OutOrStdout(), newSessionView(engine, sess))
		}),
	}

	cmd.Flags().StringVarP(&creds.Login, "login", "l", "", "admin login")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "admin password (prefer "+passwordEnv+")")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the session and clear the stored token",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			if err := engine.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		}),
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state and client security posture",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(true, func(cmd *cobra.Command, _ []string, engine *goConsole.Engine) error {
			cfg := engine.Config()
			var warnings []string
			for _, w := range cfg.Lint() {
				warnings = append(warnings, w.Severity.String()+" "+w.Code+": "+w.Message)
			}
			return a.print(cmd.OutOrStdout(), statusView{
				Session:  newSessionView(engine, engine.Current()),
				Security: newSecurityView(engine),
				Warnings: warnings,
			})
		}),
	}
}
