package database

import (
	"fmt"
	"net"
	"net/url"
)

// Config holds Postgres connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsPath points at the directory with *.up.sql files; relative
	// paths resolve against the working directory.
	MigrationsPath string `yaml:"migrations_path" envconfig:"DB_MIGRATIONS_PATH"`
}

// Validate reports missing connection fields.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("database: host is required")
	case c.Name == "":
		return fmt.Errorf("database: name is required")
	case c.User == "":
		return fmt.Errorf("database: user is required")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 5
	}
	if c.MigrationsPath == "" {
		c.MigrationsPath = "migrations"
	}
	return c
}

// DSN returns the lib/pq key/value connection string.
func (c Config) DSN() string {
	c = c.withDefaults()
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quote(c.User), quote(c.Password), quote(c.Host), c.Port, quote(c.Name), c.SSLMode,
	)
}

// URL returns the postgres:// form used by golang-migrate.
func (c Config) URL() string {
	c = c.withDefaults()
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// quote escapes a key/value DSN value when it is empty or contains spaces or quotes.
func quote(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
