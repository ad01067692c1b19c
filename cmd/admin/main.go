// Command crudkeeper-admin is the operator tool: schema migrations,
// tenant bootstrap and token issuance for existing accounts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/crudkeeper/internal/app"
	"github.com/and161185/crudkeeper/internal/auth"
	"github.com/and161185/crudkeeper/internal/config"
	"github.com/and161185/crudkeeper/internal/dto"
	"github.com/and161185/crudkeeper/internal/logging"
	"github.com/and161185/crudkeeper/internal/migrate"
	"github.com/and161185/crudkeeper/internal/model"
	"github.com/and161185/crudkeeper/internal/service"
)

var version = "dev"

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `crudkeeper-admin [-config-dir DIR] [-profile NAME] <command> [flags]

commands:
  version
  migrate up|down|version
  create-org    -name NAME
  create-admin  -org ID -email EMAIL -password PW [-name NAME]
  token         -email EMAIL
`)
}

func main() {
	configDir := flag.String("config-dir", config.DefaultDir, "directory holding base.yaml and profile files")
	profile := flag.String("profile", os.Getenv("CRUDKEEPER_PROFILE"), "configuration profile")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()
	if flag.NArg() == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}
	if flag.Arg(0) == "version" {
		fmt.Println(version)
		return
	}

	cfg, err := config.Load(*configDir, *profile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := dispatch(ctx, cfg, logger, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	if args[0] == "migrate" {
		return runMigrate(ctx, cfg, log, args[1:], out)
	}
	// the other commands apply pending migrations through the backend like the server does
	b, err := app.OpenBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	return (&admin{backend: b, tokens: app.Tokens(cfg.Auth), log: log, out: out}).run(ctx, args)
}

func runMigrate(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	if cfg.Storage.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate needs the postgres driver, configured %q", cfg.Storage.Driver)
	}
	if len(args) != 1 {
		return errUsage
	}
	m, err := migrate.Open(cfg.Storage.DSN, log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	switch args[0] {
	case "up":
		return m.Up(ctx)
	case "down":
		return m.Down(ctx)
	case "version":
		v, err := m.Version(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, v)
		return err
	}
	return errUsage
}

type admin struct {
	backend *app.Backend
	tokens  *auth.TokenService
	log     *zap.Logger
	out     io.Writer
}

func (a *admin) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "create-org":
		fs := flag.NewFlagSet("create-org", flag.ContinueOnError)
		name := fs.String("name", "", "organization name")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		org, err := service.NewOrgService(a.backend.Orgs).Create(ctx, *name)
		if err != nil {
			return err
		}
		return a.print(map[string]string{"id": org.ID.String(), "name": org.Name})

	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
		org := fs.String("org", "", "organization id")
		email := fs.String("email", "", "login email")
		password := fs.String("password", "", "initial password")
		name := fs.String("name", "", "display name")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		orgID, err := uuid.FromString(*org)
		if err != nil {
			return fmt.Errorf("-org: %w", err)
		}
		u, err := a.authService().CreateUser(ctx, service.RegisterInput{
			OrgID: orgID, Email: *email, Password: *password, DisplayName: *name,
		}, model.RoleAdmin)
		if err != nil {
			return err
		}
		return a.print(dto.UserFromModel(u))

	case "token":
		fs := flag.NewFlagSet("token", flag.ContinueOnError)
		email := fs.String("email", "", "account email")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		u, err := a.backend.Users.GetByEmail(ctx, *email)
		if err != nil {
			return fmt.Errorf("user %q: %w", *email, err)
		}
		tok, err := a.tokens.Issue(*u)
		if err != nil {
			return err
		}
		a.log.Info("token issued by operator", zap.Stringer("user", u.ID))
		return a.print(dto.TokensFromModel(tok))
	}
	return errUsage
}

func (a *admin) authService() *service.AuthService {
	b := a.backend
	return service.NewAuthService(b.Users, b.Orgs, a.tokens, b.Limiter, nil, a.log)
}

func (a *admin) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
