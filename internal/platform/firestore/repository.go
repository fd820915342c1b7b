package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
)

// Document pairs a decoded entity with its Firestore identifier.
type Document[T any] struct {
	ID   string
	Data T
}

// QueryBuilder customises Firestore queries before execution.
type QueryBuilder func(query firestore.Query) firestore.Query

// BaseRepository wraps one collection with typed document access. Concrete
// repositories embed it and add their own query and mapping logic on top.
type BaseRepository[T any] struct {
	provider   *Provider
	collection string
	label      string
}

// NewBaseRepository binds the repository to a collection on the shared client.
func NewBaseRepository[T any](provider *Provider, collection string) *BaseRepository[T] {
	collection = strings.TrimSpace(collection)
	label := collection
	if label == "" {
		label = "firestore"
	}
	return &BaseRepository[T]{provider: provider, collection: collection, label: label}
}

// Create writes the value under id and fails when the document already exists.
func (r *BaseRepository[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, value)
	return WrapError(r.label+".create", err)
}

// Set upserts the value under id.
func (r *BaseRepository[T]) Set(ctx context.Context, id string, value T) error {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, value)
	return WrapError(r.label+".set", err)
}

// Get loads and decodes the document stored under id.
func (r *BaseRepository[T]) Get(ctx context.Context, id string) (Document[T], error) {
	ref, err := r.DocumentRef(ctx, id)
	if err != nil {
		return Document[T]{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return Document[T]{}, WrapError(r.label+".get", err)
	}
	return decodeSnapshot[T](snap)
}

// Query runs build over the collection query and decodes every result.
func (r *BaseRepository[T]) Query(ctx context.Context, build QueryBuilder) ([]Document[T], error) {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	query := coll.Query
	if build != nil {
		query = build(query)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, WrapError(r.label+".query", err)
	}

	docs := make([]Document[T], 0, len(snaps))
	for _, snap := range snaps {
		doc, err := decodeSnapshot[T](snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DocumentRef resolves the raw document reference, for transactional reads
// and writes that bypass the typed helpers.
func (r *BaseRepository[T]) DocumentRef(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, WrapError(r.label+".document", errors.New("document id is required"))
	}
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

func (r *BaseRepository[T]) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	switch {
	case r == nil, r.provider == nil:
		return nil, WrapError("firestore.collection", errors.New("repository not initialised"))
	case r.collection == "":
		return nil, WrapError("firestore.collection", errors.New("collection name is required"))
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(r.collection), nil
}

func decodeSnapshot[T any](snap *firestore.DocumentSnapshot) (Document[T], error) {
	var data T
	if err := snap.DataTo(&data); err != nil {
		return Document[T]{}, fmt.Errorf("decode document %s: %w", snap.Ref.ID, err)
	}
	return Document[T]{ID: snap.Ref.ID, Data: data}, nil
}
