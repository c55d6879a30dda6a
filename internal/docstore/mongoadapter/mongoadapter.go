// Package mongoadapter is the production docstore.Store
// implementation backed by MongoDB. Its id-mapping chokepoint mirrors
// original_source's ArangoDB adapter, ported from Arango's "_key" to
// Mongo's "_id": the external id and Mongo's _id are kept identical
// (minted with uuid.NewString() at Create time) so the adapter never
// needs a second field, only a consistent strip/re-inject at the
// document boundary.
package mongoadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
)

// Adapter is a docstore.Store over a MongoDB database.
type Adapter struct {
	db *mongo.Database
}

// New wraps an already-connected mongo database handle.
func New(db *mongo.Database) *Adapter {
	return &Adapter{db: db}
}

// Connect dials the given URI and returns a ready Adapter. Grounded in
// the teacher's startup-time client construction shape: dial once,
// fail fast, hand the pool to every caller.
func Connect(ctx context.Context, uri, dbName string) (*Adapter, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Wrap(apperr.ServiceUnavailable, "connect to document store", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, apperr.Wrap(apperr.ServiceUnavailable, "ping document store", err)
	}
	return New(client.Database(dbName)), nil
}

// docToResult is the one chokepoint that converts a raw Mongo document
// (keyed on "_id") into the external shape (keyed on "id"). No other
// function in this package may read "_id" directly.
func docToResult(raw bson.M) docstore.Document {
	out := make(docstore.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		out[k] = v
	}
	if id, ok := raw["_id"].(string); ok {
		out["id"] = id
	}
	return out
}

// docToMongo is the inverse chokepoint: it stamps the external id onto
// "_id" and strips the external "id" key before an insert/replace.
func docToMongo(doc docstore.Document, id string) bson.M {
	out := bson.M{"_id": id}
	for k, v := range doc {
		if k == "id" || k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}

// idToFilter is the only place an external id becomes a Mongo filter.
func idToFilter(id string) bson.M {
	return bson.M{"_id": id}
}

func (a *Adapter) Create(ctx context.Context, collection string, doc docstore.Document) (docstore.Document, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	mongoDoc := docToMongo(doc, id)
	if _, err := a.db.Collection(collection).InsertOne(ctx, mongoDoc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Wrap(apperr.Conflict, "duplicate key", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "insert document", err)
	}
	return docToResult(mongoDoc), nil
}

func (a *Adapter) GetByID(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.M
	err := a.db.Collection(collection).FindOne(ctx, idToFilter(id)).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "get document", err)
	}
	return docToResult(raw), nil
}

func (a *Adapter) Query(ctx context.Context, collection string, filters docstore.Filters, skip, limit int, sortSpec []docstore.SortField) ([]docstore.Document, error) {
	mongoFilter := filtersToMongo(filters)

	opts := options.Find()
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if len(sortSpec) > 0 {
		sortDoc := bson.D{}
		for _, sf := range sortSpec {
			dir := 1
			if sf.Direction == docstore.Descending {
				dir = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: sf.Field, Value: dir})
		}
		opts.SetSort(sortDoc)
	}

	cur, err := a.db.Collection(collection).Find(ctx, mongoFilter, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "query documents", err)
	}
	defer cur.Close(ctx)

	var results []docstore.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "decode document", err)
		}
		results = append(results, docToResult(raw))
	}
	if err := cur.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "iterate documents", err)
	}
	return results, nil
}

func (a *Adapter) FindOne(ctx context.Context, collection string, filters docstore.Filters) (docstore.Document, error) {
	var raw bson.M
	err := a.db.Collection(collection).FindOne(ctx, filtersToMongo(filters)).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "find document", err)
	}
	return docToResult(raw), nil
}

func (a *Adapter) Update(ctx context.Context, collection, id string, patch docstore.Document) (docstore.Document, error) {
	set := bson.M{}
	for k, v := range patch {
		if k == "id" || k == "_id" {
			continue
		}
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var raw bson.M
	err := a.db.Collection(collection).
		FindOneAndUpdate(ctx, idToFilter(id), bson.M{"$set": set}, opts).
		Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, apperr.Wrap(apperr.Conflict, "duplicate key", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "update document", err)
	}
	return docToResult(raw), nil
}

func (a *Adapter) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := a.db.Collection(collection).DeleteOne(ctx, idToFilter(id))
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "delete document", err)
	}
	return res.DeletedCount > 0, nil
}

func (a *Adapter) Count(ctx context.Context, collection string, filters docstore.Filters) (int, error) {
	n, err := a.db.Collection(collection).CountDocuments(ctx, filtersToMongo(filters))
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count documents", err)
	}
	return int(n), nil
}

func (a *Adapter) Exists(ctx context.Context, collection, id string) (bool, error) {
	n, err := a.db.Collection(collection).CountDocuments(ctx, idToFilter(id), options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "check document existence", err)
	}
	return n > 0, nil
}

func (a *Adapter) CreateCollection(ctx context.Context, collection string) error {
	if err := a.db.CreateCollection(ctx, collection); err != nil {
		return apperr.Wrap(apperr.Internal, "create collection", err)
	}
	return nil
}

func (a *Adapter) DropCollection(ctx context.Context, collection string) error {
	if err := a.db.Collection(collection).Drop(ctx); err != nil {
		return apperr.Wrap(apperr.Internal, "drop collection", err)
	}
	return nil
}

func (a *Adapter) TruncateCollection(ctx context.Context, collection string) error {
	if _, err := a.db.Collection(collection).DeleteMany(ctx, bson.M{}); err != nil {
		return apperr.Wrap(apperr.Internal, "truncate collection", err)
	}
	return nil
}

func (a *Adapter) CreateIndex(ctx context.Context, collection string, spec docstore.IndexSpec) error {
	keys := bson.D{}
	for _, sf := range spec.Fields {
		dir := 1
		if sf.Direction == docstore.Descending {
			dir = -1
		}
		keys = append(keys, bson.E{Key: sf.Field, Value: dir})
	}

	idxOpts := options.Index().SetUnique(spec.Unique).SetSparse(spec.Sparse)
	if spec.Name != "" {
		idxOpts.SetName(spec.Name)
	}

	_, err := a.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: idxOpts,
	})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create index", err)
	}
	return nil
}

func (a *Adapter) DropIndex(ctx context.Context, collection, name string) error {
	if _, err := a.db.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
		return apperr.Wrap(apperr.Internal, "drop index", err)
	}
	return nil
}

func filtersToMongo(filters docstore.Filters) bson.M {
	out := bson.M{}
	for field, want := range filters {
		if rx, ok := want.(docstore.Regex); ok {
			opts := ""
			if rx.CaseInsensitive {
				opts = "i"
			}
			out[field] = bson.M{"$regex": rx.Pattern, "$options": opts}
			continue
		}
		out[field] = want
	}
	return out
}
