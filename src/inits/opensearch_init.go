package inits

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"photogram_services/src/datastore"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
	"photogram_services/src/queries"
)

// SearchIndex holds one document per profile for username lookups.
const SearchIndex = "profile-search"

func CreateOpenSearchClient(addresses []string, username, password string) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return client, nil
}

// InitOpenSearch creates the search index and seeds it from the users
// collection, so profiles created before the index existed are findable.
// Failures are logged, not fatal; search degrades while the rest of the
// service keeps running.
func InitOpenSearch(ctx context.Context, store datastore.Store, client *opensearch.Client) {
	settings := strings.NewReader(`{"settings": {"index": {"number_of_shards": 1, "number_of_replicas": 1}}}`)

	create := opensearchapi.IndicesCreateRequest{Index: SearchIndex, Body: settings}
	logger.Infof("Creating index %v", SearchIndex)
	createResponse, err := create.Do(ctx, client)
	if err != nil {
		logger.Errorf("Failed to create search index: %v", err)
		return
	}
	defer createResponse.Body.Close()

	users, err := queries.ListUsers(ctx, store, 0)
	if err != nil {
		logger.Errorf("Failed to list profiles for the search seed: %v", err)
		return
	}

	for _, user := range users {
		if err := IndexUser(ctx, client, user); err != nil {
			logger.Errorf("Failed to index profile %v: %v", user.Username, err)
		}
	}
}

// IndexUser upserts one profile document into the search index, keyed on the
// userId so re-indexing replaces instead of duplicating. A nil client is a
// no-op for deployments running without search.
func IndexUser(ctx context.Context, client *opensearch.Client, user m.User) error {
	if client == nil {
		return nil
	}

	result := m.Search{
		ID:           user.UserID,
		Username:     user.Username,
		FullName:     user.FullName,
		ProfilePhoto: user.ProfilePhoto,
		ResultType:   "user",
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	document := strings.NewReader(string(data))

	req := opensearchapi.IndexRequest{
		Index:      SearchIndex,
		DocumentID: result.ID,
		Body:       document,
	}
	insertResponse, err := req.Do(ctx, client)
	if err != nil {
		return err
	}
	defer insertResponse.Body.Close()

	if insertResponse.IsError() {
		return fmt.Errorf("index profile %v: %v", user.Username, insertResponse.Status())
	}
	return nil
}
