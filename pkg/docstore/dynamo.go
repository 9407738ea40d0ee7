package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	ddb "github.com/pheebyy/carelink/pkg/dynamodb"
)

// DynamoStore keeps each collection in its own table. Users and conversations are keyed by `id`,
// transactions by `reference`; fcmTokens is a string set so single tokens can be deleted atomically.
type DynamoStore struct {
	client ddb.API
	tables ddb.Tables
	now    func() time.Time
}

func NewDynamoStore(client ddb.API, tables ddb.Tables) *DynamoStore {
	return &DynamoStore{client: client, tables: tables, now: time.Now}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

func (d *DynamoStore) getItem(ctx context.Context, table, id string, dst interface{}) error {
	if id == "" {
		return ErrNotFound
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &table, Key: idKey(id)})
	if err != nil {
		return fmt.Errorf("dynamodb GetItem %s/%s failed: %w", table, id, err)
	}
	if len(out.Item) == 0 {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(out.Item, dst); err != nil {
		return fmt.Errorf("unmarshal item: %w", err)
	}
	return nil
}

func (d *DynamoStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := d.getItem(ctx, d.tables.Conversations, id, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (d *DynamoStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := d.getItem(ctx, d.tables.Users, id, &u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func (d *DynamoStore) PutTransaction(ctx context.Context, tx *Transaction) error {
	if tx.Reference == "" {
		return fmt.Errorf("invalid transaction reference %q", tx.Reference)
	}
	rec := *tx
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = d.now().UTC()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &d.tables.Transactions, Item: item})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoStore) ActivatePremium(ctx context.Context, userID string, since, expiry time.Time) error {
	if userID == "" {
		return ErrNotFound
	}
	values, err := attributevalue.MarshalMap(map[string]interface{}{
		":p": true,
		":s": since.UTC(),
		":e": expiry.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal premium values: %w", err)
	}
	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 &d.tables.Users,
		Key:                       idKey(userID),
		UpdateExpression:          sdkaws.String("SET isPremium = :p, premiumSince = :s, premiumExpiry = :e"),
		ConditionExpression:       sdkaws.String("attribute_exists(id)"),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}

func (d *DynamoStore) RemoveToken(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return nil
	}
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.tables.Users,
		Key:                 idKey(userID),
		UpdateExpression:    sdkaws.String("DELETE fcmTokens :t"),
		ConditionExpression: sdkaws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberSS{Value: []string{token}},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return fmt.Errorf("dynamodb UpdateItem failed: %w", err)
	}
	return nil
}

func (d *DynamoStore) Close() error { return nil }
