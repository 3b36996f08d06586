package db

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var MongoClient *mongo.Client
var MongoDatabase *mongo.Database
var CasesCollection *mongo.Collection

// GetCollection returns a collection by name
func GetCollection(collectionName string) *mongo.Collection {
	return MongoDatabase.Collection(collectionName)
}

// extractDBName parses the database name from the URI, defaulting to "liqingai"
func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "liqingai"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:] // trim leading '/'
	}
	return "liqingai"
}

// ConnectMongoDB establishes a connection to MongoDB using the provided URI
func ConnectMongoDB(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection with a ping
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoClient = client
	dbName := extractDBName(uri)
	log.Printf("Using database: %s", dbName)

	MongoDatabase = client.Database(dbName)
	CasesCollection = MongoDatabase.Collection("cases")
	return nil
}

// EnsureIndexes creates the join-code uniqueness index and participant
// lookup indexes on the cases collection.
func EnsureIndexes(ctx context.Context) error {
	if CasesCollection == nil {
		return fmt.Errorf("cases collection not initialized")
	}
	_, err := CasesCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "join_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "plaintiff_id", Value: 1}}},
		{Keys: bson.D{{Key: "defendant_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create case indexes: %w", err)
	}
	return nil
}
