package db

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/realsbd/bicxchange/internal/logger"
	"github.com/realsbd/bicxchange/internal/model"
)

// Open connects to the database named by rawURL. Accepted schemes are
// mysql://, sqlite:// and postgres(ql)://, optionally with a "+driver" suffix
// such as mysql+aiomysql:// which is ignored.
func Open(rawURL string, log zerolog.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(rawURL)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGorm(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if dialector.Name() == "sqlite" {
		// sqlite has a single writer; one connection also keeps :memory: databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return gdb, nil
}

func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Dialector(rawURL string) (gorm.Dialector, error) {
	scheme, rest, ok := strings.Cut(strings.TrimSpace(rawURL), "://")
	if !ok {
		return nil, fmt.Errorf("db url %q has no scheme", rawURL)
	}
	driver, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch driver {
	case "sqlite", "sqlite3":
		return sqlite.Open(sqliteDSN(rest)), nil
	case "mysql":
		dsn, err := mysqlDSN(rest)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open("postgres://" + rest), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// sqliteDSN follows the sqlite:///relative.db and sqlite:////abs.db convention.
func sqliteDSN(rest string) string {
	dsn := strings.TrimPrefix(rest, "/")
	if dsn == "" {
		dsn = ":memory:"
	}
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=1"
	}
	return dsn + "?_foreign_keys=1"
}

// mysqlDSN converts user:pass@host:port/name into the go-sql-driver format.
// Input already in driver form (user:pass@tcp(host)/name) passes through.
func mysqlDSN(rest string) (string, error) {
	if strings.Contains(rest, "@tcp(") || strings.Contains(rest, "@unix(") {
		cfg, err := mysqldriver.ParseDSN(rest)
		if err != nil {
			return "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}

	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if _, _, err := net.SplitHostPort(u.Host); err != nil {
		cfg.Addr = net.JoinHostPort(u.Host, "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pass, ok := u.User.Password(); ok && pass != "''" {
			cfg.Passwd = pass
		}
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	for k, v := range u.Query() {
		if len(v) > 0 {
			cfg.Params[k] = v[0]
		}
	}
	return cfg.FormatDSN(), nil
}

func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&model.User{}, &model.Community{}, &model.Item{}, &model.Post{})
}

// DropAll removes every application table together with the migration log.
func DropAll(gdb *gorm.DB) error {
	return gdb.Migrator().DropTable(&model.Post{}, &model.Item{}, &model.Community{}, &model.User{}, "schema_migrations")
}
