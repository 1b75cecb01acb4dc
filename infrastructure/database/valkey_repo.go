package database

import (
	"context"

	"github.com/AzielCF/az-bot/infrastructure/valkey"
)

type ValkeyRepository struct {
	client *valkey.Client
	key    string
}

// NewValkeyRepository stores the document as one string key: <prefix>database:<name>.
func NewValkeyRepository(client *valkey.Client, name string) *ValkeyRepository {
	return &ValkeyRepository{client: client, key: client.Key("database", name)}
}

func (r *ValkeyRepository) Read(ctx context.Context) ([]byte, error) {
	inner := r.client.Inner()
	data, err := inner.Do(ctx, inner.B().Get().Key(r.key).Build()).AsBytes()
	if valkey.IsNil(err) {
		return nil, nil
	}
	return data, err
}

func (r *ValkeyRepository) Write(ctx context.Context, data []byte) error {
	inner := r.client.Inner()
	return inner.Do(ctx, inner.B().Set().Key(r.key).Value(string(data)).Build()).Error()
}

// Close is a no-op: the Valkey client is shared and closed by its owner.
func (r *ValkeyRepository) Close() error {
	return nil
}
