package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
)

const userCollection = "users"

type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Username  string        `bson:"username"`
	Hash      string        `bson:"hash"`
	Salt      string        `bson:"salt"`
	Image     string        `bson:"image,omitempty"`
	Deleted   bool          `bson:"deleted"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

func toDocument(u *entity.User) (userDocument, error) {
	doc := userDocument{
		Email:     u.Email,
		Username:  u.Username,
		Hash:      u.Hash,
		Salt:      u.Salt,
		Image:     u.Image,
		Deleted:   u.Deleted,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.ID != "" {
		oid, err := parseID(u.ID)
		if err != nil {
			return doc, err
		}
		doc.ID = oid
	}
	return doc, nil
}

func (d userDocument) toEntity() *entity.User {
	return &entity.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Username:  d.Username,
		Hash:      d.Hash,
		Salt:      d.Salt,
		Image:     d.Image,
		Deleted:   d.Deleted,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return oid, nil
}

// filterDoc builds the query document for f.
func filterDoc(f repository.UserFilter) bson.M {
	q := bson.M{}
	if f.Deleted != nil {
		q["deleted"] = *f.Deleted
	}
	return q
}

func mapWriteErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type UserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewUserRepository returns the Mongo user store and makes sure the unique indexes exist.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	coll := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "created_at", Value: 1}},
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &UserRepository{coll: coll, now: time.Now}, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	now := r.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	doc, err := toDocument(u)
	if err != nil {
		return err
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return mapWriteErr("insert user", err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return errors.New("insert user: inserted id is not an ObjectID")
	}
	u.ID = oid.Hex()
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, q bson.M) (*entity.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, q).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// Update writes every mutable field of u and bumps UpdatedAt.
func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	oid, err := parseID(u.ID)
	if err != nil {
		return err
	}
	updatedAt := r.now().UTC()

	set := bson.M{
		"email":      u.Email,
		"username":   u.Username,
		"hash":       u.Hash,
		"salt":       u.Salt,
		"image":      u.Image,
		"deleted":    u.Deleted,
		"updated_at": updatedAt,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return mapWriteErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	u.UpdatedAt = updatedAt
	return nil
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter, skip, limit int64) ([]*entity.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, filterDoc(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	users := make([]*entity.User, 0, limit)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		users = append(users, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context, f repository.UserFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, filterDoc(f))
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
