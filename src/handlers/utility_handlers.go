package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"photogram_services/src/logger"
)

// MutationTimeout bounds writes that run on the server context rather than
// the request context, so an abandoned request cannot cancel half of a
// paired update. Main overrides it from configuration.
var MutationTimeout = 10 * time.Second

func mutationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, MutationTimeout)
}

func GETHandlerRoot(w http.ResponseWriter, r *http.Request) {
	var welcomeString string = fmt.Sprintln("Welcome to Photogram Services.\nRequest one of the following routes to query data:\n /user\n /feed\n /photos\n /search\n /ws")
	responseBytes := []byte(welcomeString)

	w.Header().Set("Content-Type", "text/plain")
	w.Write(responseBytes)
}

func AssociatedDomains(w http.ResponseWriter, r *http.Request) {
	associatedDomains := map[string]interface{}{
		"webcredentials": map[string]interface{}{
			"apps": []string{"9G8Z84JPGV.com.photogram.app"},
		},
	}
	responseBytes, err := json.Marshal(associatedDomains)
	if err != nil {
		http.Error(w, "Failed to marshal associated domains", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(responseBytes)
}

func WriteErrorToWriter(w http.ResponseWriter, errorString string) {
	jsonString, err := json.MarshalIndent(errorString, "", "\t")
	if err != nil {
		logger.Errorf("%v", err)
		return
	}

	responseBytes := []byte(jsonString)

	w.Header().Set("Content-Type", "application/json") //add content length number of bytes
	w.Write(responseBytes)
}
