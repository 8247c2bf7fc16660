package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Dune-pebbler/izi-casting/internal/model"
)

// Open connects to Postgres, retrying while the database comes up.
func Open(databaseURL string) (*sqlx.DB, error) {
	const maxRetries = 10
	const retryInterval = 2 * time.Second
	var db *sqlx.DB
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sqlx.Connect("postgres", databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return db, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		time.Sleep(retryInterval)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// RunMigrations finds all "*.up.sql" files in migrationsPath (sorted by
// name) and executes their SQL contents in order.
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	pattern := filepath.Join(migrationsPath, "*.up.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		log.Error().Msg("failed to list up migrations")
		return fmt.Errorf("failed to glob migrations: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	sort.Strings(files)

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			log.Error().Msg("failed to read migration file")
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		sqlStmt := string(sqlBytes)
		if sqlStmt == "" {
			continue
		}
		if _, err := db.Exec(sqlStmt); err != nil {
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
	}
	return nil
}

type pgStore struct {
	db       *sqlx.DB
	notifier Notifier
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

// NewPgStore wraps a Postgres connection as a document Store. Every
// successful write publishes the document key on the notifier so
// subscribers refetch.
func NewPgStore(db *sqlx.DB, notifier Notifier) Store {
	return &pgStore{db: db, notifier: notifier}
}

func (s *pgStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc []byte
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM documents WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("[store] failed to get document")
		return nil, false, err
	}
	return doc, true, nil
}

func (s *pgStore) Put(ctx context.Context, key string, doc []byte, merge bool) error {
	const q = `
	INSERT INTO documents (key, doc, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET
	doc        = CASE WHEN $3 THEN documents.doc || excluded.doc ELSE excluded.doc END,
	updated_at = now();`
	if _, err := s.db.ExecContext(ctx, q, key, doc, merge); err != nil {
		log.Error().Err(err).Str("key", key).Msg("[store] failed to put document")
		return err
	}
	s.publish(ctx, key)
	return nil
}

func (s *pgStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE key = $1`, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("[store] failed to delete document")
		return err
	}
	s.publish(ctx, key)
	return nil
}

func (s *pgStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	var docs [][]byte
	err := s.db.SelectContext(ctx, &docs,
		`SELECT doc FROM documents WHERE key LIKE $1 ORDER BY key`, prefix+"%")
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("[store] failed to list documents")
		return nil, err
	}
	return docs, nil
}

func (s *pgStore) Subscribe(ctx context.Context, key string, onChange OnChange) (func(), error) {
	doc, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	onChange(doc, ok)

	unsub, err := s.notifier.Subscribe(key, func(changed string) {
		doc, ok, err := s.Get(context.Background(), changed)
		if err != nil {
			log.Error().Err(err).Str("key", changed).Msg("[store] refetch after change failed")
			return
		}
		onChange(doc, ok)
	})
	if err != nil {
		return nil, err
	}
	return unsub, nil
}

func (s *pgStore) ConsumePairingCode(ctx context.Context, code string) ([]byte, error) {
	key := PairingKey(code)

	doc, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCodeNotFound
	}

	var pc model.PairingCode
	if err := json.Unmarshal(doc, &pc); err != nil {
		log.Error().Err(err).Str("code", code).Msg("[store] malformed pairing code document")
		return nil, ErrCodeNotFound
	}
	if pc.IsUsed {
		return nil, ErrCodeUsed
	}
	if pc.Expired(time.Now()) {
		return nil, ErrCodeExpired
	}

	// The isUsed guard makes the consume atomic: two admins racing on the
	// same code leave exactly one winner.
	const q = `
	UPDATE documents
	SET doc = doc || '{"isUsed": true}'::jsonb, updated_at = now()
	WHERE key = $1 AND (doc->>'isUsed')::boolean = false
	RETURNING doc;`
	var updated []byte
	err = s.db.GetContext(ctx, &updated, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeUsed
	}
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("[store] failed to consume pairing code")
		return nil, err
	}
	s.publish(ctx, key)
	return updated, nil
}

func (s *pgStore) publish(ctx context.Context, key string) {
	if err := s.notifier.Publish(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("[store] failed to publish change")
	}
}
