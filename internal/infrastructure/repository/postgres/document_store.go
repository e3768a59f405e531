package postgres

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/document"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/jsontree"
	"github.com/tallink-tennis/fuss-tracker/internal/platform/logging"
	qb "github.com/tallink-tennis/fuss-tracker/internal/platform/querybuilder"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type DocumentStoreConfig struct {
	// DSN opens the dedicated LISTEN connection; it may differ from the
	// pooled connection used for reads and writes.
	DSN                  string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
	PingInterval         time.Duration
}

type documentSubscriber struct {
	root   string
	signal chan struct{}
}

// DocumentStore keeps one jsonb row per root collection. Writes lock the
// affected rows, edit them in Go and announce the change with pg_notify so
// every subscribed process re-reads the root.
type DocumentStore struct {
	db     *sqlx.DB
	cfg    DocumentStoreConfig
	logger *logging.Logger

	listenOnce sync.Once
	listenErr  error
	listener   *pq.Listener
	stop       chan struct{}

	mu   sync.Mutex
	subs map[*documentSubscriber]struct{}
}

var _ document.Store = (*DocumentStore)(nil)

func NewDocumentStore(db *sqlx.DB, cfg DocumentStoreConfig, logger *logging.Logger) *DocumentStore {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MinReconnectInterval <= 0 {
		cfg.MinReconnectInterval = time.Second
	}
	if cfg.MaxReconnectInterval < cfg.MinReconnectInterval {
		cfg.MaxReconnectInterval = time.Minute
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 90 * time.Second
	}
	return &DocumentStore{
		db:     db,
		cfg:    cfg,
		logger: logger.Named("postgres.documents"),
		stop:   make(chan struct{}),
		subs:   make(map[*documentSubscriber]struct{}),
	}
}

func (s *DocumentStore) Get(ctx context.Context, path string) ([]byte, error) {
	parts := jsontree.Split(path)
	if len(parts) == 0 {
		tree, err := s.loadAll(ctx)
		if err != nil {
			return nil, err
		}
		return encodeDocument(tree)
	}

	query, args, err := qb.Select("body").From(documentsTable).Where(qb.Eq("root", parts[0])).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select document query: %w", err)
	}

	var body []byte
	if err := s.db.GetContext(ctx, &body, query, args...); err != nil {
		if isNotFound(err) {
			return []byte("null"), nil
		}
		return nil, fmt.Errorf("get document %s: %w", parts[0], err)
	}

	node, err := decodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", parts[0], err)
	}
	return encodeDocument(jsontree.Get(node, parts[1:]))
}

func (s *DocumentStore) Set(ctx context.Context, path string, value any) error {
	parts := jsontree.Split(path)
	if len(parts) == 0 {
		return fmt.Errorf("%w: replacing the whole tree is not supported", document.ErrRejected)
	}
	node, err := jsontree.Normalize(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", document.ErrRejected, path, err)
	}
	return s.apply(ctx, map[string][]documentEdit{
		parts[0]: {{path: parts[1:], value: node}},
	})
}

func (s *DocumentStore) Update(ctx context.Context, path string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	edits, err := planUpdate(path, fields)
	if err != nil {
		return err
	}
	return s.apply(ctx, edits)
}

func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	return s.Set(ctx, path, nil)
}

// Subscribe emits the root document holding path, then re-reads it on every
// change notification for that root and after each listener reconnect.
func (s *DocumentStore) Subscribe(ctx context.Context, path string, fn func(document.Snapshot)) error {
	if err := s.startListener(); err != nil {
		return err
	}

	sub := &documentSubscriber{root: jsontree.Root(path), signal: make(chan struct{}, 1)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()

	emit := func() error {
		raw, err := s.Get(ctx, path)
		if err != nil {
			return err
		}
		fn(document.Snapshot{Path: path, Raw: raw})
		return nil
	}

	if err := emit(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return fmt.Errorf("document store closed")
		case <-sub.signal:
			if err := emit(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Close stops the change listener. Active subscriptions return an error.
func (s *DocumentStore) Close() error {
	select {
	case <-s.stop:
		return nil
	default:
		close(s.stop)
	}
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *DocumentStore) apply(ctx context.Context, edits map[string][]documentEdit) error {
	roots := make([]string, 0, len(edits))
	for root := range edits {
		roots = append(roots, root)
	}
	// Rows are always locked in root order.
	sort.Strings(roots)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin document tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, root := range roots {
		if err := s.applyRoot(ctx, tx, root, edits[root]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document tx: %w", err)
	}
	return nil
}

func (s *DocumentStore) applyRoot(ctx context.Context, tx *sqlx.Tx, root string, edits []documentEdit) error {
	query, args, err := qb.Select("body").From(documentsTable).Where(qb.Eq("root", root)).ForUpdate().ToSQL()
	if err != nil {
		return fmt.Errorf("build lock document query: %w", err)
	}

	var node any
	var body []byte
	switch err := tx.GetContext(ctx, &body, query, args...); {
	case err == nil:
		if node, err = decodeDocument(body); err != nil {
			return fmt.Errorf("decode document %s: %w", root, err)
		}
	case isNotFound(err):
	default:
		return fmt.Errorf("lock document %s: %w", root, err)
	}

	for _, edit := range edits {
		node = jsontree.Set(node, edit.path, edit.value)
	}

	if node == nil {
		query, args, err = qb.DeleteFrom(documentsTable).Where(qb.Eq("root", root)).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete document query: %w", err)
		}
	} else {
		encoded, encErr := jsonCodec.Marshal(node)
		if encErr != nil {
			return fmt.Errorf("%w: encode document %s: %v", document.ErrRejected, root, encErr)
		}
		query, args, err = qb.InsertInto(documentsTable).
			Columns("root", "body", "updated_at").
			Values(root, string(encoded), time.Now().UTC()).
			OnConflictUpdate([]string{"root"}, "body = EXCLUDED.body", "updated_at = EXCLUDED.updated_at").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert document query: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write document %s: %w", root, err)
	}

	// Notifications are delivered on commit only.
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, documentChangeChannel, root); err != nil {
		return fmt.Errorf("notify document %s: %w", root, err)
	}
	return nil
}

func (s *DocumentStore) loadAll(ctx context.Context) (any, error) {
	query, args, err := qb.Select("root", "body", "updated_at").From(documentsTable).OrderBy("root").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list documents query: %w", err)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var tree any
	for _, row := range rows {
		node, err := decodeDocument(row.Body)
		if err != nil {
			return nil, fmt.Errorf("decode document %s: %w", row.Root, err)
		}
		tree = jsontree.Set(tree, []string{row.Root}, node)
	}
	return tree, nil
}

func (s *DocumentStore) startListener() error {
	s.listenOnce.Do(func() {
		if s.cfg.DSN == "" {
			s.listenErr = fmt.Errorf("%w: document listener dsn is required", document.ErrRejected)
			return
		}

		s.listener = pq.NewListener(s.cfg.DSN, s.cfg.MinReconnectInterval, s.cfg.MaxReconnectInterval, func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
				s.logger.Warn("document listener connection issue", "event", int(ev), "error", err)
			case pq.ListenerEventReconnected:
				s.logger.Info("document listener reconnected")
			}
		})
		if err := s.listener.Listen(documentChangeChannel); err != nil {
			_ = s.listener.Close()
			s.listenErr = fmt.Errorf("listen %s: %w", documentChangeChannel, err)
			return
		}
		go s.dispatch()
	})
	return s.listenErr
}

func (s *DocumentStore) dispatch() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			// A nil notification follows a reconnect; changes may have been missed.
			if n == nil {
				s.signal("")
				continue
			}
			s.signal(n.Extra)
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.logger.Warn("document listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *DocumentStore) signal(root string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		if root != "" && sub.root != "" && sub.root != root {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// planUpdate splits a multi-location update into per-root edits.
func planUpdate(path string, fields map[string]any) (map[string][]documentEdit, error) {
	base := jsontree.Split(path)
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string][]documentEdit)
	for _, key := range keys {
		full := append(append([]string(nil), base...), jsontree.Split(key)...)
		if len(full) == 0 {
			return nil, fmt.Errorf("%w: update field %q resolves to the tree root", document.ErrRejected, key)
		}
		node, err := jsontree.Normalize(fields[key])
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %v", document.ErrRejected, key, err)
		}
		out[full[0]] = append(out[full[0]], documentEdit{path: full[1:], value: node})
	}
	return out, nil
}

func decodeDocument(body []byte) (any, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var node any
	if err := jsonCodec.Unmarshal(body, &node); err != nil {
		return nil, err
	}
	return node, nil
}

func encodeDocument(node any) ([]byte, error) {
	if node == nil {
		return []byte("null"), nil
	}
	return jsonCodec.Marshal(node)
}
