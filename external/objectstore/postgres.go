package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foxseedlab/fanreel/internal/objectstore"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
	urls publicURLs
}

func NewPostgresStore(pool *pgxpool.Pool, baseURL string) *PostgresStore {
	return &PostgresStore{pool: pool, urls: newPublicURLs(baseURL)}
}

func (s *PostgresStore) Put(ctx context.Context, path string, body []byte, contentType string) (string, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blobs (path, content_type, body, size, uploaded_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (path) DO UPDATE
		 SET content_type = EXCLUDED.content_type, body = EXCLUDED.body, size = EXCLUDED.size, uploaded_at = EXCLUDED.uploaded_at`,
		path, contentType, body, len(body))
	if err != nil {
		return "", err
	}
	return s.urls.urlFor(path), nil
}

func (s *PostgresStore) Get(ctx context.Context, path string) ([]byte, objectstore.Object, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT body, content_type, size, uploaded_at FROM blobs WHERE path = $1`, path)
	var body []byte
	obj := objectstore.Object{Path: path, URL: s.urls.urlFor(path)}
	if err := row.Scan(&body, &obj.ContentType, &obj.Size, &obj.UploadedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, objectstore.Object{}, fmt.Errorf("%w: %s", objectstore.ErrNotFound, path)
		}
		return nil, objectstore.Object{}, err
	}
	return body, obj, nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT path, content_type, size, uploaded_at FROM blobs
		 WHERE path LIKE $1 ESCAPE '\' ORDER BY path ASC`,
		likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]objectstore.Object, 0)
	for rows.Next() {
		var o objectstore.Object
		if err := rows.Scan(&o.Path, &o.ContentType, &o.Size, &o.UploadedAt); err != nil {
			return nil, err
		}
		o.URL = s.urls.urlFor(o.Path)
		list = append(list, o)
	}
	return list, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, url string) error {
	path, err := s.urls.pathFor(url)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM blobs WHERE path = $1`, path)
	return err
}

func (s *PostgresStore) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	path, err := s.urls.pathFor(url)
	if err != nil {
		return nil, "", err
	}
	body, obj, err := s.Get(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return body, obj.ContentType, nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// Shutdown closes the pool when the injector shuts down.
func (s *PostgresStore) Shutdown() error {
	s.pool.Close()
	return nil
}
