package database

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	DatabaseName       = "docqa"
	ChatCollection     = "chats"
	MessageCollection  = "messages"
	FileDataCollection = "file_data"
)

// Connect opens a MongoDB client for the given URI. ObjectIDs decode as
// hex strings so repository types can use plain string IDs.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetBSONOptions(
			&options.BSONOptions{
				ObjectIDAsHexString: true,
			},
		))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}
