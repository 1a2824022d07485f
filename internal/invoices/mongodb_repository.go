package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBRepository implements Repository using MongoDB.
type MongoDBRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// mongoInvoice is the document shape. Amounts are stored as decimal strings
// so no precision is lost to BSON doubles.
type mongoInvoice struct {
	ID          string     `bson:"_id"`
	Payee       string     `bson:"payee"`
	Amount      string     `bson:"amount"`
	Token       string     `bson:"token,omitempty"`
	Status      string     `bson:"status"`
	Description string     `bson:"description,omitempty"`
	ClientName  string     `bson:"clientName,omitempty"`
	DueDate     *time.Time `bson:"dueDate,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

// NewMongoDBRepository connects and ensures indexes.
func NewMongoDBRepository(connectionString, database, collection string) (*MongoDBRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(collection)
	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &MongoDBRepository{client: client, collection: coll, now: time.Now}, nil
}

// GetInvoice retrieves an invoice by ID.
func (r *MongoDBRepository) GetInvoice(ctx context.Context, id string) (Invoice, error) {
	var doc mongoInvoice
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("find invoice: %w", err)
	}
	return mongoToInvoice(doc)
}

// SaveInvoice upserts an invoice.
func (r *MongoDBRepository) SaveInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	inv = prepareForSave(inv, r.now().UTC())

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": inv.ID}, invoiceToMongo(inv), opts); err != nil {
		return Invoice{}, fmt.Errorf("upsert invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns all invoices, newest first.
func (r *MongoDBRepository) ListInvoices(ctx context.Context) ([]Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Invoice
	for cursor.Next(ctx) {
		var doc mongoInvoice
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		inv, err := mongoToInvoice(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (r *MongoDBRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func invoiceToMongo(inv Invoice) mongoInvoice {
	return mongoInvoice{
		ID:          inv.ID,
		Payee:       inv.Payee,
		Amount:      inv.Amount.String(),
		Token:       inv.Token,
		Status:      string(inv.Status),
		Description: inv.Description,
		ClientName:  inv.ClientName,
		DueDate:     inv.DueDate,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

func mongoToInvoice(doc mongoInvoice) (Invoice, error) {
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return Invoice{}, fmt.Errorf("parse amount for invoice %s: %w", doc.ID, err)
	}
	return Invoice{
		ID:          doc.ID,
		Payee:       doc.Payee,
		Amount:      amount,
		Token:       doc.Token,
		Status:      Status(doc.Status),
		Description: doc.Description,
		ClientName:  doc.ClientName,
		DueDate:     doc.DueDate,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}, nil
}
