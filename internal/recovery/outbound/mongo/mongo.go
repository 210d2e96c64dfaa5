// Package mongo is the document-store account adapter. Accounts live in the
// users collection with the fields email, name, password and updatedAt.
package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/krishignan/krishignan/internal/pkg/goerror"
	"github.com/krishignan/krishignan/internal/pkg/instrument"
	"github.com/krishignan/krishignan/internal/recovery/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const collectionUsers = "users"

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	Password  string             `bson:"password"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type Mongo struct {
	users *mongo.Collection
	ins   instrument.Instrumentation
}

func NewMongo(db *mongo.Database, ins instrument.Instrumentation) *Mongo {
	return &Mongo{users: db.Collection(collectionUsers), ins: ins}
}

func (m *Mongo) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return goerror.ErrNotFound
	}

	if mongo.IsDuplicateKeyError(err) {
		return goerror.ErrConflict
	}

	return err
}

func (m *Mongo) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.ins.Tracer("recovery.outbound.mongo").Start(ctx, name)
}

func (m *Mongo) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (m *Mongo) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := m.startSpan(ctx, "GetAccountByEmail")
	defer func() { m.endSpan(span, err) }()

	var doc userDocument
	if err := m.users.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		return nil, m.mapError(err)
	}

	return &entity.Account{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		FullName:     doc.Name,
		PasswordHash: doc.Password,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (m *Mongo) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) (err error) {
	ctx, span := m.startSpan(ctx, "UpdatePasswordHash")
	defer func() { m.endSpan(span, err) }()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return goerror.ErrNotFound
	}

	res, err := m.users.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"password": hash, "updatedAt": at.UTC()}},
	)
	if err != nil {
		return m.mapError(err)
	}
	if res.MatchedCount == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
