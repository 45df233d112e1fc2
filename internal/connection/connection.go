// Package connection describes a graph database connection. The builder
// core treats it as opaque and forwards it to the sampling collaborator.
package connection

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid connection")

// Protocols are the accepted URI schemes.
var Protocols = []string{"neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc"}

const browserBase = "https://browser.neo4j.io/?connectURL="

var validate = validator.New()

// Connection is the descriptor used to reach a database. Password is never
// persisted.
type Connection struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Protocol string `json:"protocol" yaml:"protocol" validate:"required,oneof=neo4j neo4j+s neo4j+ssc bolt bolt+s bolt+ssc"`
	Host     string `json:"uri" yaml:"uri" validate:"required,hostname_rfc1123|ip|hostname_port"`
	Port     int    `json:"port" yaml:"port" validate:"min=1,max=65535"`
	Database string `json:"database" yaml:"database" validate:"required"`
	User     string `json:"user" yaml:"user" validate:"required"`
	Password string `json:"password,omitempty" yaml:"-"`
}

// Default returns the descriptor of a local database.
func Default() Connection {
	return Connection{
		Protocol: "neo4j+s",
		Host:     "localhost",
		Port:     7687,
		Database: "neo4j",
		User:     "neo4j",
	}
}

// Validate checks the descriptor fields.
func (c Connection) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Address is the driver URI. A host that already carries a port is used
// as is.
func (c Connection) Address() string {
	if strings.Contains(c.Host, ":") {
		return c.Protocol + "://" + c.Host
	}
	return c.Protocol + "://" + c.Host + ":" + strconv.Itoa(c.Port)
}

// BrowserURL links the external query console to this connection.
func (c Connection) BrowserURL() string {
	target := c.Protocol + "://" + c.User + "@" + c.Host + ":" + strconv.Itoa(c.Port)
	return browserBase + url.QueryEscape(target)
}

// Key identifies the connection in the cache: the name when set, else
// user@host:port/database.
func (c Connection) Key() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// Redacted returns a copy without the password.
func (c Connection) Redacted() Connection {
	c.Password = ""
	return c
}

// ParseURI fills protocol, host and port from a URI such as
// "neo4j+s://db.example.com:7687". Parts missing from uri keep the values
// of base.
func ParseURI(base Connection, uri string) (Connection, error) {
	out := base
	rest := uri
	if scheme, after, ok := strings.Cut(uri, "://"); ok {
		out.Protocol = scheme
		rest = after
	}
	if host, port, ok := strings.Cut(rest, ":"); ok {
		p, err := strconv.Atoi(port)
		if err != nil {
			return base, fmt.Errorf("%w: port %q", ErrInvalid, port)
		}
		out.Host, out.Port = host, p
	} else if rest != "" {
		out.Host = rest
	}
	return out, nil
}
