package targets

import (
	"fmt"
	"net/url"

	"github.com/relialab/healthprobe/internal/core/domain/target"
	"github.com/relialab/healthprobe/internal/core/ports"
	"github.com/relialab/healthprobe/internal/infrastructure/broker"
	"github.com/relialab/healthprobe/internal/infrastructure/db"
)

// Factory builds targets from their string address forms: an AMQP URL for
// messaging, a Postgres DSN for database, an HTTP(S) URL for service.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Create(kind target.Kind, address string, opts target.RegisterOptions) (target.Target, error) {
	switch kind {
	case target.KindMessaging:
		client, err := broker.Dial(address)
		if err != nil {
			return nil, err
		}
		return target.Messaging{Client: client}, nil
	case target.KindDatabase:
		return target.Database{Handle: db.NewConnector(address), OverrideQuery: opts.Query}, nil
	case target.KindService:
		u, err := url.Parse(address)
		if err != nil {
			return nil, fmt.Errorf("targets: invalid service address %q: %w", address, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("targets: service address %q must be http or https", address)
		}
		return target.Service{Address: u}, nil
	default:
		return nil, fmt.Errorf("targets: %q: %w", kind, target.ErrUnsupportedKind)
	}
}

var _ ports.TargetFactory = (*Factory)(nil)
