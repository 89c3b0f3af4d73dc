package target

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
)

// ErrUnsupportedKind reports a registration with a target kind outside the
// closed set of variants.
var ErrUnsupportedKind = errors.New("unsupported target kind")

// Kind identifies the variant of a registered target.
type Kind string

const (
	KindMessaging Kind = "messaging"
	KindDatabase  Kind = "database"
	KindService   Kind = "service"
)

// Messaging infrastructure every broker target uses: a well-known exchange,
// a per-process queue bound to it under a fixed routing key.
const (
	Exchange    = "health"
	QueuePrefix = "health."
	RoutingKey  = "check"
)

// ProcessIdentifier returns the name of the running program. It namespaces
// the per-process queue and tags database probe rows.
func ProcessIdentifier() string {
	return filepath.Base(os.Args[0])
}

// MessagingClient is the connection handle a messaging target carries.
// Implementations wrap a long-lived broker connection; declarations are
// idempotent on re-use.
type MessagingClient interface {
	DeclareExchange(ctx context.Context, name string) error
	DeclareQueue(ctx context.Context, name string) error
	BindQueue(ctx context.Context, queue, exchange, routingKey string) error
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
	// String returns a display form of the connection with credentials redacted.
	String() string
}

// DatabaseSession is a short-lived open connection, closed after each use.
type DatabaseSession interface {
	Exec(ctx context.Context, statement string, args ...any) error
	Close() error
}

// DatabaseHandle holds connection configuration, not an open connection.
// Open is called per validation/probe and the session closed afterwards,
// leaving pooling to the underlying driver.
type DatabaseHandle interface {
	Open(ctx context.Context) (DatabaseSession, error)
	// String returns the target identity as database@datasource.
	String() string
}

// Target is the closed set of health-check target variants. A target is
// immutable once registered.
type Target interface {
	Kind() Kind
	// Identifier is the human-readable identity reported in results.
	Identifier() string

	target()
}

// Messaging is a message-broker target.
type Messaging struct {
	Client MessagingClient
}

func (Messaging) Kind() Kind           { return KindMessaging }
func (t Messaging) Identifier() string { return t.Client.String() }
func (Messaging) target()              {}

// Database is a relational-store target. OverrideQuery, when non-empty,
// replaces the default validation and probe statements.
type Database struct {
	Handle        DatabaseHandle
	OverrideQuery string
}

func (Database) Kind() Kind           { return KindDatabase }
func (t Database) Identifier() string { return t.Handle.String() }
func (Database) target()              {}

// Service is an HTTP(S) endpoint target.
type Service struct {
	Address *url.URL
}

func (Service) Kind() Kind           { return KindService }
func (t Service) Identifier() string { return t.Address.String() }
func (Service) target()              {}

// RegisterOptions carries the recognized per-registration overrides.
type RegisterOptions struct {
	// Query overrides the default validation/probe statement for database
	// targets. Ignored for other kinds.
	Query string
}
