package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/ClusterMST/internal/domain/result"
	"github.com/turtacn/ClusterMST/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClusterMST/pkg/errors"
)

// Serializer encodes snapshots for storage.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

type jsonSerializer struct{}

func (s *jsonSerializer) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (s *jsonSerializer) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// ResultStore is a result.Repository shared by every server instance behind
// one Redis. Snapshots are stored as JSON under "<prefix>result:<id>" and
// expire after the configured TTL.
type ResultStore struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	ttl        time.Duration
	serializer Serializer
	group      singleflight.Group
}

var _ result.Repository = (*ResultStore)(nil)

type StoreOption func(*ResultStore)

func WithPrefix(prefix string) StoreOption {
	return func(s *ResultStore) { s.prefix = prefix }
}

func WithSerializer(ser Serializer) StoreOption {
	return func(s *ResultStore) { s.serializer = ser }
}

// NewResultStore returns a store keeping snapshots for ttl. The key prefix
// defaults to the client's configured prefix.
func NewResultStore(client *Client, ttl time.Duration, log logging.Logger, opts ...StoreOption) *ResultStore {
	s := &ResultStore{
		client:     client,
		logger:     log,
		prefix:     client.KeyPrefix(),
		ttl:        ttl,
		serializer: &jsonSerializer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ResultStore) key(id string) string {
	return s.prefix + "result:" + id
}

// Save writes snap with the store TTL.
func (s *ResultStore) Save(ctx context.Context, snap *result.Snapshot) error {
	data, err := s.serializer.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode result")
	}
	if err := s.client.Set(ctx, s.key(snap.ID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to save result")
	}
	s.logger.Debug("Result saved",
		logging.String("result_id", snap.ID),
		logging.Int("bytes", len(data)),
	)
	return nil
}

// Get loads a snapshot. Concurrent loads of the same id share one round trip,
// which matters when a page requests many tooltip images at once.
func (s *ResultStore) Get(ctx context.Context, id string) (*result.Snapshot, error) {
	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		data, err := s.client.Get(ctx, s.key(id)).Bytes()
		if err == redis.Nil {
			return nil, result.NotFound(id)
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to load result")
		}
		var snap result.Snapshot
		if err := s.serializer.Unmarshal(data, &snap); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode result")
		}
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*result.Snapshot), nil
}

// Delete removes a snapshot. Missing ids are not an error.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete result")
	}
	return nil
}

// Ping checks the connection.
func (s *ResultStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
