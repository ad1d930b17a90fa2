package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "globeguess:round:"

// Valkey is a Store shared by every instance of the service.
type Valkey struct {
	client valkey.Client
}

func NewValkey(addr string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Valkey{client: client}, nil
}

// Claim uses SET NX so that exactly one caller wins per id.
func (v *Valkey) Claim(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := v.client.Do(ctx,
		v.client.B().Set().Key(keyPrefix+id).Value("1").Nx().Ex(ttl).Build(),
	)
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("valkey set: %w", err)
	}
	return true, nil
}

// Ping checks the connection, used by the health endpoint.
func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *Valkey) Close() {
	v.client.Close()
}
