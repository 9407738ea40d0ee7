package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(collection, id string) (*firestore.DocumentRef, error) {
	ref := s.client.Collection(collection).Doc(id)
	if ref == nil {
		// Doc returns nil for an empty or malformed id
		return nil, ErrNotFound
	}
	return ref, nil
}

func (s *FirestoreStore) get(ctx context.Context, collection, id string, dst interface{}) error {
	ref, err := s.doc(collection, id)
	if err != nil {
		return err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("firestore get %s/%s: %w", collection, id, err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := s.get(ctx, CollectionConversations, id, &c); err != nil {
		return nil, err
	}
	c.ID = id
	return &c, nil
}

func (s *FirestoreStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.get(ctx, CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func (s *FirestoreStore) PutTransaction(ctx context.Context, tx *Transaction) error {
	ref, err := s.doc(CollectionTransactions, tx.Reference)
	if err != nil {
		return fmt.Errorf("invalid transaction reference %q", tx.Reference)
	}
	// zero CreatedAt is filled with the server timestamp
	rec := *tx
	rec.CreatedAt = time.Time{}
	if _, err := ref.Set(ctx, rec); err != nil {
		return fmt.Errorf("firestore set transaction %s: %w", tx.Reference, err)
	}
	return nil
}

func (s *FirestoreStore) ActivatePremium(ctx context.Context, userID string, since, expiry time.Time) error {
	ref, err := s.doc(CollectionUsers, userID)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "isPremium", Value: true},
		{Path: "premiumSince", Value: since},
		{Path: "premiumExpiry", Value: expiry},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("firestore activate premium for %s: %w", userID, err)
	}
	return nil
}

func (s *FirestoreStore) RemoveToken(ctx context.Context, userID, token string) error {
	ref, err := s.doc(CollectionUsers, userID)
	if err != nil {
		return nil
	}
	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "fcmTokens", Value: firestore.ArrayRemove(token)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("firestore remove token for %s: %w", userID, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
