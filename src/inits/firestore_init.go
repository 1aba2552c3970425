package inits

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// CreateFirestoreClient connects to the hosted document database. With an
// empty credentialsFile the client falls back to ambient application-default
// credentials, which is what local development uses.
func CreateFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client for %v: %w", projectID, err)
	}
	return client, nil
}
