package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Collection is a typed view over a Firestore collection. Documents are
// marshalled through struct tags; keys are snake_case.
type Collection[T any] struct {
	Ref *firestore.CollectionRef
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{Ref: c.Ref.Doc(id)}
}

func (c *Collection[T]) NewDoc() *DocumentRef[T] {
	return &DocumentRef[T]{Ref: c.Ref.NewDoc()}
}

// All streams every document in the collection.
func (c *Collection[T]) All(ctx context.Context) ([]*T, error) {
	iter := c.Ref.Documents(ctx)
	defer iter.Stop()

	var out []*T
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var v T
		if err := snap.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
}

type DocumentRef[T any] struct {
	Ref *firestore.DocumentRef
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set merge-writes the full document. Last write wins per field.
func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	_, err := d.Ref.Set(ctx, data, firestore.MergeAll)
	return err
}

// Update merge-writes a partial map. Keys must match the Firestore
// snake_case field names; dotted paths address nested fields.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	_, err := d.Ref.Set(ctx, updates, firestore.MergeAll)
	return err
}

// Apply runs firestore field transforms (array unions, increments) that the
// merge-style Update cannot express.
func (d *DocumentRef[T]) Apply(ctx context.Context, updates []firestore.Update) error {
	_, err := d.Ref.Update(ctx, updates)
	return err
}

func (d *DocumentRef[T]) Delete(ctx context.Context) error {
	_, err := d.Ref.Delete(ctx)
	return err
}
