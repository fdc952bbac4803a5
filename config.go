package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"tally/internal/dblib"
)

// Config is one resolved database connection.
type Config struct {
	Database string
	Host     string
	Port     string
	Username string
	Password string
	// DBTypeOverride allows explicitly selecting the database type via config
	DBTypeOverride *dblib.DatabaseType
}

// ConnectionConfig is a named connection in config.yaml.
type ConnectionConfig struct {
	Type     string `mapstructure:"type"`
	Database string `mapstructure:"database"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AppConfig is read from config.yaml, TALLY_* variables and command line flags.
type AppConfig struct {
	PageSize    int                         `mapstructure:"page_size"`
	SentryDSN   string                      `mapstructure:"sentry_dsn"`
	Connections map[string]ConnectionConfig `mapstructure:"connections"`
}

const defaultPageSize = 10

// loadAppConfig reads configuration from file and env. Env var overrides use prefix TALLY_.
func loadAppConfig(flags *pflag.FlagSet) (AppConfig, error) {
	v := viper.New()
	v.SetDefault("page_size", defaultPageSize)
	v.SetDefault("sentry_dsn", "")

	v.SetConfigType("yaml")
	if cfgPath := os.Getenv("TALLY_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else if dir, err := getConfigDir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("page-size"); f != nil {
			if err := v.BindPFlag("page_size", f); err != nil {
				return AppConfig{}, fmt.Errorf("bind flags: %w", err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c AppConfig
	if err := v.Unmarshal(&c); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// resolve turns a database argument into a connection. Named connections from the
// config file come first; flag values override their fields.
func (a AppConfig) resolve(name string, flags Config) (Config, error) {
	c := Config{Database: name}
	// viper lowercases map keys
	if conn, ok := a.Connections[strings.ToLower(name)]; ok {
		c = Config{
			Database: conn.Database,
			Host:     conn.Host,
			Port:     conn.Port,
			Username: conn.Username,
			Password: conn.Password,
		}
		if conn.Type != "" {
			t, err := dblib.ParseDatabaseType(conn.Type)
			if err != nil {
				return Config{}, fmt.Errorf("connection %s: %w", name, err)
			}
			c.DBTypeOverride = &t
		}
		if c.Database == "" {
			c.Database = name
		}
	}
	if flags.Database != "" {
		c.Database = flags.Database
	}
	if flags.Host != "" {
		c.Host = flags.Host
	}
	if flags.Port != "" {
		c.Port = flags.Port
	}
	if flags.Username != "" {
		c.Username = flags.Username
	}
	if flags.Password != "" {
		c.Password = flags.Password
	}
	if c.Database == "" {
		return Config{}, fmt.Errorf("no database given")
	}
	return c, nil
}

var databaseIcons = map[dblib.DatabaseType]string{
	dblib.SQLite:     "🪶",
	dblib.PostgreSQL: "🐘",
	dblib.MySQL:      "🐬",
}

func (c *Config) detectDatabaseType() dblib.DatabaseType {
	if c.DBTypeOverride != nil {
		return *c.DBTypeOverride
	}
	switch strings.ToLower(filepath.Ext(c.Database)) {
	case ".sqlite", ".sqlite3", ".db":
		return dblib.SQLite
	}
	return dblib.PostgreSQL
}

func currentUsername() string {
	if currentUser, err := user.Current(); err == nil {
		return currentUser.Username
	}
	return ""
}

func (c *Config) buildConnectionString() (string, dblib.DatabaseType, error) {
	dbType := c.detectDatabaseType()

	switch dbType {
	case dblib.SQLite:
		if _, err := os.Stat(c.Database); os.IsNotExist(err) {
			return "", dbType, fmt.Errorf("sqlite file does not exist: %s", c.Database)
		}
		return c.Database + "?_foreign_keys=on", dbType, nil

	case dblib.PostgreSQL:
		connStr := fmt.Sprintf("dbname=%s", c.Database)
		if c.Host != "" {
			connStr += fmt.Sprintf(" host=%s", c.Host)
		}
		if c.Port != "" {
			connStr += fmt.Sprintf(" port=%s", c.Port)
		}
		if c.Username != "" {
			connStr += fmt.Sprintf(" user=%s", c.Username)
		} else if name := currentUsername(); name != "" {
			connStr += fmt.Sprintf(" user=%s", name)
		}
		if c.Password != "" {
			connStr += fmt.Sprintf(" password=%s", c.Password)
		}
		connStr += " sslmode=disable"
		return connStr, dbType, nil

	case dblib.MySQL:
		connStr := c.Username
		if connStr == "" {
			connStr = currentUsername()
		}
		if c.Password != "" {
			connStr += ":" + c.Password
		}
		connStr += "@"

		host := c.Host
		if host == "" {
			host = "localhost"
		}
		port := c.Port
		if port == "" {
			port = "3306"
		}
		connStr += fmt.Sprintf("tcp(%s:%s)/%s?parseTime=true", host, port, c.Database)
		return connStr, dbType, nil

	default:
		return "", dbType, fmt.Errorf("unsupported database type")
	}
}

func (c *Config) connect(ctx context.Context) (*sql.DB, dblib.DatabaseType, error) {
	connStr, dbType, err := c.buildConnectionString()
	if err != nil {
		return nil, dbType, err
	}

	db, err := sql.Open(dbType.Driver(), connStr)
	if err != nil {
		return nil, dbType, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dbType, fmt.Errorf("failed to ping database: %w", err)
	}
	if dbType.Embedded() {
		// one writer for the file
		db.SetMaxOpenConns(1)
	}
	return db, dbType, nil
}
