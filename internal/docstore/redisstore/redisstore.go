// Package redisstore stores docstore leaves in Redis and shares change
// notifications between processes over Pub/Sub.
//
// Key format:
//   - {namespace}:leaves   hash of path -> JSON value
//   - {namespace}:paths    sorted set of paths, all scored 0 for lex ranges
//   - {namespace}:changes  Pub/Sub channel carrying changed paths
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vbonduro/grocerysync/internal/docstore"
)

const maxTxRetries = 5

type Backend struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
}

// New connects to redisURL and verifies the connection.
func New(redisURL, namespace string, logger *slog.Logger) (*Backend, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL %s: %w", redisURL, err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", redisURL, err)
	}

	logger.Info("redis docstore connected", "namespace", namespace, "db", opts.DB)
	return NewWithClient(client, namespace, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, namespace string, logger *slog.Logger) *Backend {
	return &Backend{client: client, namespace: namespace, logger: logger}
}

func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) leavesKey() string  { return b.namespace + ":leaves" }
func (b *Backend) pathsKey() string   { return b.namespace + ":paths" }
func (b *Backend) changesKey() string { return b.namespace + ":changes" }

func (b *Backend) Replace(ctx context.Context, path string, leaves []docstore.Leaf) error {
	lo, hi := docstore.SubtreeBounds(path)

	txf := func(tx *redis.Tx) error {
		existing, err := tx.ZRangeByLex(ctx, b.pathsKey(), &redis.ZRangeBy{
			Min: "[" + lo,
			Max: "(" + hi,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to list subtree: %w", err)
		}

		stale := append(existing, path)
		stale = append(stale, docstore.Ancestors(path)...)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			members := make([]interface{}, len(stale))
			for i, p := range stale {
				members[i] = p
			}
			pipe.HDel(ctx, b.leavesKey(), stale...)
			pipe.ZRem(ctx, b.pathsKey(), members...)

			if len(leaves) == 0 {
				return nil
			}
			values := make([]interface{}, 0, len(leaves)*2)
			index := make([]*redis.Z, 0, len(leaves))
			for _, l := range leaves {
				values = append(values, l.Path, string(l.Value))
				index = append(index, &redis.Z{Score: 0, Member: l.Path})
			}
			pipe.HSet(ctx, b.leavesKey(), values...)
			pipe.ZAdd(ctx, b.pathsKey(), index...)
			return nil
		})
		return err
	}

	return b.watch(ctx, "replace", path, txf)
}

// Leaves reads the subtree index and the values under one WATCH, so a
// concurrent Replace forces a re-read instead of a mix of old and new leaves.
func (b *Backend) Leaves(ctx context.Context, path string) ([]docstore.Leaf, error) {
	lo, hi := docstore.SubtreeBounds(path)

	var leaves []docstore.Leaf
	txf := func(tx *redis.Tx) error {
		below, err := tx.ZRangeByLex(ctx, b.pathsKey(), &redis.ZRangeBy{
			Min: "[" + lo,
			Max: "(" + hi,
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to list subtree: %w", err)
		}

		paths := append([]string{path}, below...)
		values, err := tx.HMGet(ctx, b.leavesKey(), paths...).Result()
		if err != nil {
			return fmt.Errorf("failed to read leaves: %w", err)
		}

		leaves = make([]docstore.Leaf, 0, len(paths))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				// Nothing stored at path itself.
				continue
			}
			leaves = append(leaves, docstore.Leaf{Path: paths[i], Value: []byte(s)})
		}

		// EXEC fails if either key changed since WATCH.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Exists(ctx, b.pathsKey())
			return nil
		})
		return err
	}

	if err := b.watch(ctx, "read", path, txf); err != nil {
		return nil, err
	}
	return leaves, nil
}

// watch runs txf under WATCH on both keys, retrying when another client
// modified them first.
func (b *Backend) watch(ctx context.Context, op, path string, txf func(*redis.Tx) error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := b.client.Watch(ctx, txf, b.pathsKey(), b.leavesKey())
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			b.logger.Debug(op+" contended, retrying", "path", path, "attempt", i+1)
			continue
		}
		return err
	}
	return fmt.Errorf("failed to %s %s after %d attempts: %w", op, path, maxTxRetries, redis.TxFailedErr)
}

func (b *Backend) Publish(ctx context.Context, path string) error {
	if err := b.client.Publish(ctx, b.changesKey(), path).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Changes streams changed paths published by any process until ctx ends.
func (b *Backend) Changes(ctx context.Context) (<-chan string, error) {
	pubsub := b.client.Subscribe(ctx, b.changesKey())

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.changesKey(), err)
	}

	out := make(chan string, 64)
	go func() {
		defer func() {
			_ = pubsub.Close()
			close(out)
		}()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := docstore.ValidatePath(msg.Payload); err != nil {
					b.logger.Warn("ignoring malformed change", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
