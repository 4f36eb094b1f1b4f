package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// TxRunner executes a function inside one transactional scope: either every
// write made through the scoped context commits, or none does. Scopes are
// short-lived and must never span a call to an external collaborator.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxRunner implements TxRunner on a MongoDB session transaction
type MongoTxRunner struct {
	client *mongo.Client
}

// NewMongoTxRunner creates a new MongoTxRunner
func NewMongoTxRunner(client *mongo.Client) *MongoTxRunner {
	return &MongoTxRunner{client: client}
}

func (r *MongoTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
