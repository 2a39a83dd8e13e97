// Package seed loads the read-only catalog and its poster assets.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/myflix-app/apiserver/internal/store"
	"github.com/myflix-app/apiserver/types"
)

// Catalog is the seed file layout.
type Catalog struct {
	Movies []types.Movie `json:"movies"`
	Actors []types.Actor `json:"actors"`
}

// Result counts what a seed run did.
type Result struct {
	Inserted int
	Skipped  int
}

// Inserter is the part of the document store seeding writes through.
type Inserter interface {
	InsertOne(ctx context.Context, collection string, doc bson.D) (string, error)
}

// Uploader is the part of object storage asset seeding writes through.
type Uploader interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// LoadCatalog decodes a catalog file.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var catalog Catalog
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	for i, movie := range catalog.Movies {
		if movie.Name == "" {
			return Catalog{}, fmt.Errorf("movie %d has no name", i)
		}
	}
	for i, actor := range catalog.Actors {
		if actor.Name == "" {
			return Catalog{}, fmt.Errorf("actor %d has no name", i)
		}
	}
	return catalog, nil
}

// Insert writes every movie and actor. Entries rejected as duplicates are
// skipped so the seed can be re-run.
func Insert(ctx context.Context, docs Inserter, catalog Catalog, log logrus.FieldLogger) (Result, error) {
	var res Result

	insert := func(collection, name string, value any) error {
		doc, err := store.ToDocument(value)
		if err != nil {
			return fmt.Errorf("encode %s %q: %w", collection, name, err)
		}
		id, err := docs.InsertOne(ctx, collection, doc)
		if errors.Is(err, store.ErrDuplicate) {
			log.WithFields(logrus.Fields{"collection": collection, "name": name}).Info("already seeded")
			res.Skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert %s %q: %w", collection, name, err)
		}
		log.WithFields(logrus.Fields{"collection": collection, "name": name, "id": id}).Debug("seeded")
		res.Inserted++
		return nil
	}

	for _, movie := range catalog.Movies {
		if err := insert(types.MoviesCollection, movie.Name, movie); err != nil {
			return res, err
		}
	}
	for _, actor := range catalog.Actors {
		if err := insert(types.ActorsCollection, actor.Name, actor); err != nil {
			return res, err
		}
	}
	return res, nil
}

// UploadAssets stores every regular file under dir, keyed by its slash
// separated path relative to dir. Content types are sniffed from the file.
func UploadAssets(ctx context.Context, dst Uploader, dir string, log logrus.FieldLogger) (int, error) {
	if err := dst.EnsureBucket(ctx); err != nil {
		return 0, fmt.Errorf("ensure bucket: %w", err)
	}

	uploaded := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		mtype, err := mimetype.DetectFile(path)
		if err != nil {
			return fmt.Errorf("detect %s: %w", key, err)
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}
		if err := dst.Put(ctx, key, f, info.Size(), mtype.String()); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}

		log.WithFields(logrus.Fields{"key": key, "content_type": mtype.String(), "bytes": info.Size()}).Info("uploaded asset")
		uploaded++
		return nil
	})
	return uploaded, err
}
