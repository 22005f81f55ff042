package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
)

// Options selects and addresses the storage backend.
type Options struct {
	Driver   string
	URL      string // sqlite file path or mysql DSN
	MongoURI string
	MongoDB  string
	Debug    bool
}

// Stores bundles the repositories of one backend.
type Stores struct {
	Absences    AbsenceRepository
	Submissions WeekSubmissionRepository

	closeFn func(ctx context.Context) error
}

func (s *Stores) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// Open connects to the configured backend and runs migrations.
func Open(ctx context.Context, opts Options, logger *logrus.Logger) (*Stores, error) {
	switch opts.Driver {
	case DriverSQLite, DriverMySQL, "":
		db, err := OpenGorm(opts.Driver, opts.URL, opts.Debug)
		if err != nil {
			return nil, err
		}
		stores, err := NewGormStores(db)
		if err != nil {
			return nil, err
		}
		logger.WithField("driver", db.Dialector.Name()).Info("Database connected")
		return stores, nil

	case DriverMongo:
		stores, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		logger.WithField("database", opts.MongoDB).Info("MongoDB connected")
		return stores, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// OpenGorm opens a SQLite file (the default) or a MySQL DSN.
func OpenGorm(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", driver)
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	if dialector.Name() == "sqlite" {
		// SQLite has a single writer; one connection also keeps :memory: shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

func NewGormStores(db *gorm.DB) (*Stores, error) {
	absences, err := NewGormAbsenceRepository(db)
	if err != nil {
		return nil, fmt.Errorf("migrate absences: %w", err)
	}
	submissions, err := NewGormWeekSubmissionRepository(db)
	if err != nil {
		return nil, fmt.Errorf("migrate week submissions: %w", err)
	}

	return &Stores{
		Absences:    absences,
		Submissions: submissions,
		closeFn: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}, nil
}

func OpenMongo(ctx context.Context, uri, database string) (*Stores, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	absences, err := NewMongoAbsenceRepository(connectCtx, db)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("index absences: %w", err)
	}
	submissions, err := NewMongoWeekSubmissionRepository(connectCtx, db)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("index week submissions: %w", err)
	}

	return &Stores{
		Absences:    absences,
		Submissions: submissions,
		closeFn:     client.Disconnect,
	}, nil
}
