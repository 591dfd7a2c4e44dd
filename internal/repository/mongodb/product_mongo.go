package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalogapi/internal/model"
	"catalogapi/internal/repository"
)

// CollectionName is the collection holding product documents.
const CollectionName = "products"

// productDocument is the stored shape of a product.
type productDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Name           string             `bson:"name"`
	Price          float64            `bson:"price"`
	Description    string             `bson:"description"`
	CategoryName   string             `bson:"categoryName"`
	ImageURL       string             `bson:"imageUrl"`
	ImageLocalPath string             `bson:"imageLocalPath"`
	UserID         string             `bson:"userId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

func (d productDocument) toModel() model.Product {
	return model.Product{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Price:        d.Price,
		Description:  d.Description,
		CategoryName: d.CategoryName,
		ImageRef:     model.ImageRef{RemoteURL: d.ImageURL, LocalPath: d.ImageLocalPath},
		UserID:       d.UserID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ProductMongo is a MongoDB implementation of repository.ProductRepository.
type ProductMongo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewProductMongo stores products in db's products collection.
func NewProductMongo(db *mongo.Database) *ProductMongo {
	return newProductMongo(db.Collection(CollectionName))
}

func newProductMongo(coll *mongo.Collection) *ProductMongo {
	return &ProductMongo{
		coll: coll,
		// BSON datetimes carry millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

var _ repository.ProductRepository = (*ProductMongo)(nil)

func (r *ProductMongo) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	now := r.now()
	doc := productDocument{
		Name:           p.Name,
		Price:          p.Price,
		Description:    p.Description,
		CategoryName:   p.CategoryName,
		ImageURL:       p.RemoteURL,
		ImageLocalPath: p.LocalPath,
		UserID:         p.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.Insert").Msg("")
		return nil, err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)

	out := doc.toModel()
	return &out, nil
}

func (r *ProductMongo) UpdateByID(ctx context.Context, id string, p *model.Product) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: p.Name},
		{Key: "price", Value: p.Price},
		{Key: "description", Value: p.Description},
		{Key: "categoryName", Value: p.CategoryName},
		{Key: "imageUrl", Value: p.RemoteURL},
		{Key: "imageLocalPath", Value: p.LocalPath},
		{Key: "updatedAt", Value: r.now()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc productDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.UpdateByID").Msg("")
		return nil, err
	}

	out := doc.toModel()
	return &out, nil
}

func (r *ProductMongo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc productDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.FindByID").Msg("")
		return nil, err
	}

	out := doc.toModel()
	return &out, nil
}

func (r *ProductMongo) ListAll(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Product], error) {
	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.ListAll").Msg("")
		return nil, err
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(pq.Offset)).
		SetLimit(int64(pq.Limit))
	items, err := r.find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Product]{Items: items, Total: int(total)}, nil
}

func (r *ProductMongo) ListByOwner(ctx context.Context, ownerID string) ([]model.Product, error) {
	return r.find(ctx, bson.D{{Key: "userId", Value: ownerID}}, options.Find().SetSort(newestFirst))
}

func (r *ProductMongo) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.DeleteByID").Msg("")
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *ProductMongo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]model.Product, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.find").Msg("")
		return nil, err
	}

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("component", "ProductMongo.find").Msg("")
		return nil, err
	}

	items := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toModel())
	}
	return items, nil
}
