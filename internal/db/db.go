package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type Config struct {
	Addr         string
	User         string
	Password     string
	DBName       string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

const (
	connectAttempts = 10
	connectBackoff  = 5 * time.Second
)

// DSN renders the go-sql-driver connection string for cfg.
func (cfg Config) DSN() string {
	dbConfig := mysql.Config{
		User:                 cfg.User,
		Passwd:               cfg.Password,
		Addr:                 cfg.Addr,
		DBName:               cfg.DBName,
		Net:                  "tcp",
		AllowNativePasswords: true,
		ParseTime:            true,
		Loc:                  time.UTC,
	}

	return dbConfig.FormatDSN()
}

// New opens the asset database, waiting for MySQL to come up.
func New(cfg Config, logger *zap.SugaredLogger) (*sql.DB, error) {
	var err error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		var db *sql.DB

		db, err = open(cfg)
		if err == nil {
			return db, nil
		}

		logger.Warnw("database not ready, retrying", "attempt", attempt, "error", err)
		time.Sleep(connectBackoff)
	}

	return nil, fmt.Errorf("could not connect to the database after %d attempts: %w", connectAttempts, err)
}

func open(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)

	return db, nil
}
