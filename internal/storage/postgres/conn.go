package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	pq "github.com/lib/pq"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// connString is a PostgreSQL connection string in either URL form
// (postgres://...) or key=value DSN form. Parameter keys match
// case-insensitively in both.
type connString struct {
	raw string
	url *url.URL
}

func parseConnString(raw string) (connString, error) {
	c := connString{raw: strings.TrimSpace(raw)}
	if strings.HasPrefix(c.raw, "postgres://") || strings.HasPrefix(c.raw, "postgresql://") {
		u, err := url.Parse(c.raw)
		if err != nil {
			return c, err
		}
		c.url = u
	}
	return c, nil
}

func (c connString) dsnPairs() [][2]string {
	var pairs [][2]string
	for _, field := range strings.Fields(c.raw) {
		if k, v, ok := strings.Cut(field, "="); ok {
			pairs = append(pairs, [2]string{k, v})
		}
	}
	return pairs
}

// has reports whether key is set as a parameter.
func (c connString) has(key string) bool {
	if c.url != nil {
		for k := range c.url.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
		return false
	}
	for _, kv := range c.dsnPairs() {
		if strings.EqualFold(kv[0], key) {
			return true
		}
	}
	return false
}

func (c connString) hasPassword() bool {
	if c.url != nil {
		_, set := c.url.User.Password()
		return set || c.has("password")
	}
	return c.has("password")
}

// withDefault returns the connection string with key=value added unless
// key is already present.
func (c connString) withDefault(key, value string) string {
	if c.has(key) {
		return c.raw
	}
	if c.url != nil {
		u := *c.url
		q := u.Query()
		q.Set(key, value)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return c.raw + " " + key + "=" + value
}

// ValidateConnString checks that connStr is a PostgreSQL URL or DSN without
// an embedded password. Passwords belong in ~/.pgpass, PGPASSWORD or the OS
// keyring.
func ValidateConnString(connStr string) (bool, error) {
	if strings.TrimSpace(connStr) == "" {
		return false, fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	c, err := parseConnString(connStr)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if c.hasPassword() {
		return false, ErrEmbeddedCredentials
	}
	if c.url != nil && c.url.Host == "" && c.url.User == nil && strings.Trim(c.url.Path, "/") == "" {
		return false, fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
	}
	return true, nil
}
