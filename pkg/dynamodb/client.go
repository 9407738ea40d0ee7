package dynamodb

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// API is the subset of the DynamoDB client used by the document store. *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// NewClient returns a DynamoDB client built from an already loaded AWS config
// (see pkg/aws.LoadAWSConfig, which honours AWS_ENDPOINT for DynamoDB Local).
func NewClient(cfg sdkaws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// Tables names the DynamoDB tables backing each collection.
type Tables struct {
	Transactions  string
	Users         string
	Conversations string
}

// DefaultTables mirrors the collection names.
func DefaultTables() Tables {
	return Tables{
		Transactions:  "transactions",
		Users:         "users",
		Conversations: "conversations",
	}
}
