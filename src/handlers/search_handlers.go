package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"photogram_services/src/inits"
	"photogram_services/src/logger"
	m "photogram_services/src/models"
)

func SearchEndpointHandler(ctx context.Context, searchClient *opensearch.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			searchVal := r.URL.Query().Get("lookup")
			ProfileTextSearch(r.Context(), w, searchClient, searchVal)
		}
	})
}

// ProfileTextSearch runs a prefix lookup over usernames and full names in
// the search index. Results come back ranked; ties land in index order.
func ProfileTextSearch(ctx context.Context, w http.ResponseWriter, searchClient *opensearch.Client, searchVal string) {
	results := []m.Search{}
	if searchClient == nil || strings.TrimSpace(searchVal) == "" {
		responseBytes, err := json.MarshalIndent(results, "", "\t")
		if err != nil {
			logger.Errorf("%v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseBytes)
		return
	}

	queryBody, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  searchVal,
				"type":   "bool_prefix",
				"fields": []string{"username^2", "full_name"},
			},
		},
	})
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	req := opensearchapi.SearchRequest{
		Index: []string{inits.SearchIndex},
		Body:  strings.NewReader(string(queryBody)),
	}
	response, err := req.Do(ctx, searchClient)
	if err != nil {
		fmt.Fprintf(w, "Failed to perform search: %v", err)
		return
	}
	defer response.Body.Close()

	if response.IsError() {
		WriteErrorToWriter(w, "Error: Search lookup failed")
		logger.Errorf("Search lookup failed: %v", response.Status())
		return
	}

	var envelope struct {
		Hits struct {
			Hits []struct {
				Score  float64  `json:"_score"`
				Source m.Search `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(response.Body).Decode(&envelope); err != nil {
		WriteErrorToWriter(w, "Error: Failed to unpack search response")
		logger.Errorf("Failed to unpack search response: %v", err)
		return
	}

	// Scan through the rows of search results
	for _, hit := range envelope.Hits.Hits {
		result := hit.Source
		result.Rank = hit.Score
		result.ResultType = "user"

		results = append(results, result)
	}

	responseBytes, err := json.MarshalIndent(results, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}
