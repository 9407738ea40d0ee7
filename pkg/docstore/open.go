package docstore

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	firebase "firebase.google.com/go/v4"

	ddb "github.com/pheebyy/carelink/pkg/dynamodb"
)

const (
	BackendFirestore = "firestore"
	BackendDynamoDB  = "dynamodb"
)

type Options struct {
	Backend     string
	FirebaseApp *firebase.App
	AWSConfig   sdkaws.Config
	Tables      ddb.Tables
}

// Open builds the configured backend. An empty Backend selects Firestore.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFirestore:
		if opts.FirebaseApp == nil {
			return nil, fmt.Errorf("firestore backend requires a firebase app")
		}
		client, err := opts.FirebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		return NewFirestoreStore(client), nil
	case BackendDynamoDB:
		tables := opts.Tables
		if tables == (ddb.Tables{}) {
			tables = ddb.DefaultTables()
		}
		return NewDynamoStore(ddb.NewClient(opts.AWSConfig), tables), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
