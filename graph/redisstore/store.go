// Package redisstore is the graph.Store backend for Redis.
//
// Layout, under a configurable key prefix:
//
//	{p}nodes           SET of node keys
//	{p}labels:{key}    SET of labels
//	{p}props:{key}     HASH of properties
//	{p}edges           SET of "src\x1ftype\x1fdst"
package redisstore

import (
	"context"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/logger"
)

const edgeSep = "\x1f"

// Conditional writes: a label, property or edge is only written when its
// node(s) already exist. Scripts are sent with EVAL so they also work
// inside MULTI pipelines.
var (
	addLabelScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  return redis.call('SADD', KEYS[2], ARGV[2])
end
return 0`)

	setPropertyScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  return redis.call('HSET', KEYS[2], ARGV[2], ARGV[3])
end
return 0`)

	mergeEdgeScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 and redis.call('SISMEMBER', KEYS[1], ARGV[2]) == 1 then
  return redis.call('SADD', KEYS[2], ARGV[3])
end
return 0`)
)

// Config holds connection settings.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// ErrReadInBatch is returned by reads issued inside Batch, where replies
// are not available until the transaction executes.
var ErrReadInBatch = errors.New("redis store: reads are not available inside a batch")

// Store implements graph.Store and graph.Batcher on Redis.
type Store struct {
	client *redis.Client
	c      redis.Cmdable
	keys   keyspace
	inTx   bool
	logger *zap.SugaredLogger
}

var (
	_ graph.Store   = (*Store)(nil)
	_ graph.Batcher = (*Store)(nil)
)

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config, log *zap.SugaredLogger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.WithHint(
			errors.WrapGraphStore(err, "redis unreachable at "+cfg.Addr),
			"check store.redis.addr, or set store.backend = \"sqlite\"")
	}
	s := New(client, cfg.KeyPrefix, log)
	s.logger.Infow("Connected to redis", logger.FieldAddress, cfg.Addr, "db", cfg.DB)
	return s, nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.Logger
	}
	return &Store{
		client: client,
		c:      client,
		keys:   keyspace(prefix),
		logger: logger.StoreLogger(log, "store.redis"),
	}
}

func (s *Store) UpsertNode(ctx context.Context, key string) error {
	return s.wrap(s.c.SAdd(ctx, s.keys.nodes(), key).Err(), "upsert node")
}

func (s *Store) AddLabel(ctx context.Context, key, label string) error {
	err := addLabelScript.Eval(ctx, s.c, []string{s.keys.nodes(), s.keys.labels(key)}, key, label).Err()
	return s.wrap(err, "add label")
}

func (s *Store) SetProperty(ctx context.Context, key, name, value string) error {
	err := setPropertyScript.Eval(ctx, s.c, []string{s.keys.nodes(), s.keys.props(key)}, key, name, value).Err()
	return s.wrap(err, "set property")
}

func (s *Store) MergeEdge(ctx context.Context, from, to, relType string) error {
	err := mergeEdgeScript.Eval(ctx, s.c, []string{s.keys.nodes(), s.keys.edges()}, from, to, encodeEdge(from, relType, to)).Err()
	return s.wrap(err, "merge edge")
}

// Nodes returns nodes ordered by key.
func (s *Store) Nodes(ctx context.Context, limit int) ([]graph.StoredNode, error) {
	if s.inTx {
		return nil, ErrReadInBatch
	}
	keys, err := s.client.SMembers(ctx, s.keys.nodes()).Result()
	if err != nil {
		return nil, s.wrap(err, "read nodes")
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	pipe := s.client.Pipeline()
	labelCmds := make([]*redis.StringSliceCmd, len(keys))
	propCmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		labelCmds[i] = pipe.SMembers(ctx, s.keys.labels(k))
		propCmds[i] = pipe.HGetAll(ctx, s.keys.props(k))
	}
	if len(keys) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			return nil, s.wrap(err, "read node details")
		}
	}

	nodes := make([]graph.StoredNode, 0, len(keys))
	for i, k := range keys {
		labels := labelCmds[i].Val()
		sort.Strings(labels)
		props := propCmds[i].Val()
		if props == nil {
			props = map[string]string{}
		}
		nodes = append(nodes, graph.StoredNode{InternalID: k, Key: k, Labels: labels, Properties: props})
	}
	return nodes, nil
}

// Edges returns edges ordered by their encoded form.
func (s *Store) Edges(ctx context.Context, limit int) ([]graph.StoredEdge, error) {
	if s.inTx {
		return nil, ErrReadInBatch
	}
	members, err := s.client.SMembers(ctx, s.keys.edges()).Result()
	if err != nil {
		return nil, s.wrap(err, "read edges")
	}
	sort.Strings(members)

	edges := make([]graph.StoredEdge, 0, len(members))
	for _, m := range members {
		e, ok := decodeEdge(m)
		if !ok {
			s.logger.Warnw("Skipping malformed edge member", "member", m)
			continue
		}
		edges = append(edges, e)
		if limit > 0 && len(edges) == limit {
			break
		}
	}
	return edges, nil
}

func (s *Store) Count(ctx context.Context) (int, int, error) {
	if s.inTx {
		return 0, 0, ErrReadInBatch
	}
	pipe := s.client.Pipeline()
	nodes := pipe.SCard(ctx, s.keys.nodes())
	edges := pipe.SCard(ctx, s.keys.edges())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, s.wrap(err, "count graph")
	}
	return int(nodes.Val()), int(edges.Val()), nil
}

// Clear deletes every key of the graph in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	if s.inTx {
		return ErrReadInBatch
	}
	keys, err := s.client.SMembers(ctx, s.keys.nodes()).Result()
	if err != nil {
		return s.wrap(err, "clear graph")
	}
	del := []string{s.keys.nodes(), s.keys.edges()}
	for _, k := range keys {
		del = append(del, s.keys.labels(k), s.keys.props(k))
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, del...)
		return nil
	})
	return s.wrap(err, "clear graph")
}

// Batch queues every write made by fn and sends them as one MULTI/EXEC.
// Nothing is sent when fn fails.
func (s *Store) Batch(ctx context.Context, fn func(tx graph.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	var fnErr error
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fnErr = fn(&Store{client: s.client, c: pipe, keys: s.keys, inTx: true, logger: s.logger})
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return s.wrap(err, "exec transaction")
}

func (s *Store) Close() error {
	if s.inTx {
		return nil
	}
	return s.client.Close()
}

func (s *Store) wrap(err error, what string) error {
	if err == nil || err == redis.Nil {
		return nil
	}
	return errors.WrapGraphStore(err, "redis: failed to "+what)
}

type keyspace string

func (p keyspace) nodes() string            { return string(p) + "nodes" }
func (p keyspace) edges() string            { return string(p) + "edges" }
func (p keyspace) labels(key string) string { return string(p) + "labels:" + key }
func (p keyspace) props(key string) string  { return string(p) + "props:" + key }

func encodeEdge(from, relType, to string) string {
	return from + edgeSep + relType + edgeSep + to
}

func decodeEdge(member string) (graph.StoredEdge, bool) {
	parts := strings.Split(member, edgeSep)
	if len(parts) != 3 {
		return graph.StoredEdge{}, false
	}
	return graph.StoredEdge{
		SourceID:  parts[0],
		SourceKey: parts[0],
		Type:      parts[1],
		TargetID:  parts[2],
		TargetKey: parts[2],
	}, true
}
