package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gootp/internal/pkg/clock"
	"github.com/shandysiswandi/gootp/internal/pkg/config"
	"github.com/shandysiswandi/gootp/internal/pkg/goroutine"
	"github.com/shandysiswandi/gootp/internal/pkg/instrument"
	"github.com/shandysiswandi/gootp/internal/pkg/messaging"
	"github.com/shandysiswandi/gootp/internal/pkg/router"
	"github.com/shandysiswandi/gootp/internal/pkg/uid"
	"github.com/shandysiswandi/gootp/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	token     uid.StringID

	// resources, only one of dbConn and sqliteConn is set
	dbConn     *pgxpool.Pool
	sqliteConn *sql.DB
	cacheConn  *redis.Client
	messaging  messaging.Client

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
