package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	taskapi "github.com/goliatone/go-taskapi"
	"github.com/goliatone/go-taskapi/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	auth   taskapi.Authenticator
	repo   taskapi.RepositoryManager
	tokens taskapi.TokenService
	srv    *fiber.App
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("taskapi"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if app.Config().GetApp().GetDebug() {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
		fmt.Println("============")
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}

	go func() {
		addr := app.Config().GetServer().GetAddress()
		if err := app.srv.Listen(addr); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()

	if err := app.srv.Shutdown(); err != nil {
		app.GetLogger("server").Error("shutdown", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	pcfg := app.Config().GetPersistence()

	db, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*taskapi.User)(nil))
	persistence.RegisterModel((*taskapi.Task)(nil))

	dialect := sqlitedialect.New()
	client, err := persistence.New(pcfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(taskapi.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(fixturesFS)

	if err := client.Seed(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = taskapi.NewRepositoryManager(client.DB())

	return nil
}

type userTrackerAdapter struct {
	users taskapi.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*taskapi.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *taskapi.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *taskapi.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WithAuth(ctx context.Context, app *App) error {
	acfg := app.Config().GetAuth()

	if err := app.repo.Validate(); err != nil {
		return err
	}

	provider := taskapi.NewUserProvider(userTrackerAdapter{users: app.repo.Users()})
	provider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := taskapi.NewAuthenticator(provider, app.repo, acfg)
	authenticator.WithLogger(app.GetLogger("auth"))

	app.auth = authenticator
	app.tokens = authenticator.TokenService()

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := fiber.New(fiber.Config{
		AppName:      app.Config().GetApp().GetName(),
		ErrorHandler: taskapi.NewHTTPErrorHandler(app.GetLogger("http")),
	})

	taskapi.RegisterRoutes(srv, taskapi.RouterDeps{
		Auth:   app.auth,
		Tokens: app.tokens,
		Repo:   app.repo,
		Cfg:    app.Config().GetAuth(),
		Logger: app.GetLogger("routes"),
	})

	app.srv = srv
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
