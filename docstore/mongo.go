package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const parentField = "_parent"

// Mongo stores each top-level path segment as a collection and nested lists
// as "{collection}_{sub}" collections keyed by parent id. Change events go
// through feed, which is normally the Redis-backed mq.Feed.
type Mongo struct {
	db   *mongo.Database
	feed Feed
	now  func() time.Time
}

func NewMongo(db *mongo.Database, feed Feed) *Mongo {
	if feed == nil {
		feed = NewLocalFeed()
	}
	return &Mongo{db: db, feed: feed, now: time.Now}
}

func (m *Mongo) filter(r ref) bson.M {
	f := bson.M{"_id": r.ID}
	if r.Sub != "" {
		f[parentField] = r.Parent
	}
	return f
}

func (m *Mongo) Read(ctx context.Context, path string, out any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	err = m.db.Collection(r.table()).FindOne(ctx, m.filter(r)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *Mongo) Write(ctx context.Context, path string, value any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	doc, err := toDocument(value)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	doc["_id"] = r.ID
	if r.Sub != "" {
		doc[parentField] = r.Parent
	}
	_, err = m.db.Collection(r.table()).ReplaceOne(ctx, m.filter(r), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore: write %s: %w", path, err)
	}
	m.publish(ctx, r, path, OpWrite)
	return nil
}

func (m *Mongo) Merge(ctx context.Context, path string, fields map[string]any) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	set, unset := bson.M{}, bson.M{}
	for k, v := range fields {
		if v == nil {
			unset[k] = ""
		} else {
			set[k] = v
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}
	_, err = m.db.Collection(r.table()).UpdateOne(ctx, m.filter(r), update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("docstore: merge %s: %w", path, err)
	}
	m.publish(ctx, r, path, OpMerge)
	return nil
}

func (m *Mongo) Delete(ctx context.Context, path string) error {
	r, err := parsePath(path)
	if err != nil {
		return err
	}
	if !r.isDoc() {
		return fmt.Errorf("%w: %q is not a document", ErrInvalidPath, path)
	}
	if _, err := m.db.Collection(r.table()).DeleteOne(ctx, m.filter(r)); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", path, err)
	}
	m.publish(ctx, r, path, OpDelete)
	return nil
}

func (m *Mongo) Append(ctx context.Context, path string, value any) (string, error) {
	r, err := parsePath(path)
	if err != nil {
		return "", err
	}
	if r.isDoc() {
		return "", fmt.Errorf("%w: %q is not a list", ErrInvalidPath, path)
	}
	id, err := newID()
	if err != nil {
		return "", err
	}
	doc, err := toDocument(value)
	if err != nil {
		return "", fmt.Errorf("docstore: encode %s: %w", path, err)
	}
	doc["_id"] = id
	if r.Sub != "" {
		doc[parentField] = r.Parent
	}
	if _, err := m.db.Collection(r.table()).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("docstore: append %s: %w", path, err)
	}
	r.ID = id
	m.publish(ctx, r, path+"/"+id, OpAppend)
	return id, nil
}

func (m *Mongo) List(ctx context.Context, path string) ([]Record, error) {
	r, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	if r.isDoc() {
		return nil, fmt.Errorf("%w: %q is not a list", ErrInvalidPath, path)
	}
	filter := bson.M{}
	if r.Sub != "" {
		filter[parentField] = r.Parent
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := m.db.Collection(r.table()).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", path, err)
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		raw := make([]byte, len(cur.Current))
		copy(raw, cur.Current)
		id, _ := bson.Raw(raw).Lookup("_id").StringValueOK()
		out = append(out, Record{ID: id, raw: raw, decode: bson.Unmarshal})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("docstore: list %s: %w", path, err)
	}
	return out, nil
}

func (m *Mongo) Subscribe(ctx context.Context, collection string, onChange func(ChangeEvent), onError func(error)) (Subscription, error) {
	return subscribe(ctx, m.feed, collection, onChange, onError)
}

func (m *Mongo) publish(ctx context.Context, r ref, path string, op Op) {
	ev := ChangeEvent{Collection: r.Collection, Path: path, Op: op, At: m.now()}
	if err := m.feed.Publish(ctx, ev); err != nil {
		log.Printf("docstore: publish %s %s: %v", op, path, err)
	}
}

func toDocument(v any) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// EnsureIndexes creates the parent index on nested list collections.
func (m *Mongo) EnsureIndexes(ctx context.Context, lists ...string) error {
	for _, name := range lists {
		_, err := m.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: parentField, Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("parent_order"),
		})
		if err != nil {
			return fmt.Errorf("docstore: index %s: %w", name, err)
		}
	}
	return nil
}

// EnsureTTL expires documents in collection once field is in the past.
func (m *Mongo) EnsureTTL(ctx context.Context, collection, field string) error {
	_, err := m.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{field: 1},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_" + field),
	})
	if err != nil {
		return fmt.Errorf("docstore: ttl index %s.%s: %w", collection, field, err)
	}
	return nil
}
