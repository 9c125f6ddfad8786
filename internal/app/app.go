// Package app wires the store, the repositories and the check-in engine
// from a Config.  Both the HTTP server and checkinctl start from here.
package app

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-checkin/internal/checkin"
	"github.com/iliyamo/event-checkin/internal/config"
	"github.com/iliyamo/event-checkin/internal/credential"
	"github.com/iliyamo/event-checkin/internal/database"
	"github.com/iliyamo/event-checkin/internal/repository"
)

// App holds the long-lived components of one process.
type App struct {
	Cfg     config.Config
	DB      *sql.DB
	Dialect repository.Dialect
	Log     logrus.FieldLogger

	Checkins  *repository.CheckinRepo
	Roster    *repository.ParticipantRepo
	Operators *repository.OperatorRepo

	Verifier *credential.Verifier
	Service  *checkin.Service
	Issuer   *checkin.Issuer
	Stats    *checkin.Aggregator
}

// Open opens and migrates the configured store and builds the engine.  pub
// may be nil.
func Open(cfg config.Config, log logrus.FieldLogger, pub checkin.Publisher) (*App, error) {
	verifier, err := credential.NewVerifier(cfg.CheckinSecret, cfg.CheckinSecretPrevious...)
	if err != nil {
		return nil, fmt.Errorf("check-in secret: %w", err)
	}
	db, dialect, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Cfg:       cfg,
		DB:        db,
		Dialect:   dialect,
		Log:       log,
		Checkins:  repository.NewCheckinRepo(db, dialect),
		Roster:    repository.NewParticipantRepo(db),
		Operators: repository.NewOperatorRepo(db, dialect),
		Verifier:  verifier,
	}
	a.Service = checkin.NewService(a.Checkins, a.Roster, verifier, checkin.Options{
		Publisher:    pub,
		Logger:       log.WithField("component", "checkin"),
		StoreTimeout: cfg.StoreTimeout,
	})
	a.Issuer = checkin.NewIssuer(a.Roster, verifier, log.WithField("component", "issuer"), nil)
	a.Stats = checkin.NewAggregator(a.Checkins, a.Roster, nil)
	return a, nil
}

// Close releases the database pool.
func (a *App) Close() error { return a.DB.Close() }

// OpenStore opens the database named by cfg.DBDriver and brings its schema
// up to date.
func OpenStore(cfg config.Config) (*sql.DB, repository.Dialect, error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := database.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, repository.DialectSQLite, fmt.Errorf("open sqlite: %w", err)
		}
		return db, repository.DialectSQLite, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, repository.DialectMySQL, fmt.Errorf("open mysql: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, repository.DialectMySQL, fmt.Errorf("migrate: %w", err)
	}
	return db, repository.DialectMySQL, nil
}
