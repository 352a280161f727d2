package config

import (
	"fmt"
	"net/url"
	"strings"
)

// quoteDSNValue quotes a DSN value so special characters (spaces, =,
// quotes) survive key=value parsing.
func quoteDSNValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// PostgresConnectionString returns the PostgreSQL DSN for pgx.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresUser,
		quoteDSNValue(c.PostgresPassword),
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}

// PostgresURL returns the PostgreSQL URL for golang-migrate. url.URL
// handles encoding of special characters in credentials.
func (c *Config) PostgresURL() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:     c.PostgresDBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.PostgresSSLMode),
	}
	return u.String()
}
