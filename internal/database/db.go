package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// Options describes how to reach the MySQL server.
type Options struct {
	User     string
	Pass     string
	Host     string
	Port     string
	Name     string
	TLS      bool   // encrypt the connection
	Timezone string // fixed offset such as "+07:00"
	UseUTC   bool   // read and write DATETIME values in UTC instead of Timezone
}

// DriverConfig builds the MySQL driver configuration.  parseTime=true maps
// DATETIME to time.Time; Loc and the session time_zone pin the offset so
// reads and writes agree.
func DriverConfig(o Options) (*mysql.Config, error) {
	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Pass
	cfg.Net = "tcp"
	cfg.Addr = o.Host + ":" + o.Port
	cfg.DBName = o.Name
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if o.TLS {
		cfg.TLSConfig = "true"
	}

	cfg.Loc = time.UTC
	if !o.UseUTC {
		loc, err := fixedZone(o.Timezone)
		if err != nil {
			return nil, err
		}
		cfg.Loc = loc
		if loc != time.UTC {
			cfg.Params["time_zone"] = "'" + o.Timezone + "'"
		}
	}
	return cfg, nil
}

// fixedZone parses offsets of the form "+07:00" or "-0330".
func fixedZone(offset string) (*time.Location, error) {
	s := strings.ReplaceAll(strings.TrimSpace(offset), ":", "")
	if s == "" {
		return time.UTC, nil
	}
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, fmt.Errorf("invalid timezone offset %q", offset)
	}
	h, errH := strconv.Atoi(s[1:3])
	m, errM := strconv.Atoi(s[3:5])
	if errH != nil || errM != nil || h > 14 || m > 59 {
		return nil, fmt.Errorf("invalid timezone offset %q", offset)
	}
	secs := h*3600 + m*60
	if s[0] == '-' {
		secs = -secs
	}
	return time.FixedZone(offset, secs), nil
}

// Open connects to MySQL through GORM and verifies the connection.  SQL
// logging goes through logrus; slow statements are reported at warn level.
func Open(ctx context.Context, o Options, log *logrus.Logger) (*gorm.DB, error) {
	cfg, err := DriverConfig(o)
	if err != nil {
		return nil, err
	}
	// A connector avoids re-parsing a DSN, which cannot carry a fixed-offset Loc.
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	// Pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	// Driver errors are left untranslated: the repository layer needs the
	// MySQL error number to tell 1451 from 1452.
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables for the given schema registry.
func Migrate(ctx context.Context, db *gorm.DB, registry []any) error {
	if err := db.WithContext(ctx).AutoMigrate(registry...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed inserts the reference rows the application depends on, leaving
// existing rows untouched.  Soft-deleted rows count as existing.
func Seed(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range model.Seeds() {
			var code int
			switch v := row.(type) {
			case *model.AccountStatus:
				code = v.Code
			case *model.UserStatus:
				code = v.Code
			case *model.OrderStatus:
				code = v.Code
			default:
				return fmt.Errorf("unsupported seed %T", row)
			}
			if err := tx.Unscoped().Where("code = ?", code).FirstOrCreate(row).Error; err != nil {
				return fmt.Errorf("seed %T code=%d: %w", row, code, err)
			}
		}
		return nil
	})
}
