package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	"photogram_services/src/logger"
)

func ContentEndpointHandler(ctx context.Context, gcpStorage *storage.Client, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			switch r.URL.Path {
			case "/image":
				ServePhoto(ctx, w, r, gcpStorage, bucket)
			case "/upload":
				GenerateAndSendSignedUrl(ctx, w, r, gcpStorage, bucket)
			}
		}
	})
}

// GenerateAndSendSignedUrl hands the client a short-lived PUT URL for the
// photo bytes. The object path derives from the client-minted photoId; the
// metadata document referencing it is created afterward via POST /photo.
func GenerateAndSendSignedUrl(ctx context.Context, w http.ResponseWriter, r *http.Request, gcpStorage *storage.Client, bucket string) {
	photoID, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		WriteErrorToWriter(w, "Error: Provide a unique, valid UUID for the upload")
		logger.Errorf("Could not parse photo id from request: %v", err)
		return
	}
	object := "photos/" + photoID.String()

	opts := &storage.SignedURLOptions{
		Scheme: storage.SigningSchemeV4,
		Method: "PUT",
		Headers: []string{
			"Content-Type:application/octet-stream",
		},
		Expires: time.Now().UTC().Add(3 * time.Minute),
	}

	url, err := gcpStorage.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		logger.Errorf("Unable to generate signed URL for upload link: %v", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(url))
}

// ServePhoto streams the stored bytes for one photo object.
func ServePhoto(ctx context.Context, w http.ResponseWriter, r *http.Request, gcpStorage *storage.Client, bucket string) {
	photoID := r.URL.Query().Get("id")

	obj := gcpStorage.Bucket(bucket).Object("photos/" + photoID)
	imageReader, err := obj.NewReader(ctx)
	if err != nil {
		logger.Errorf("%v", err)
		http.Error(w, "photo not found", http.StatusNotFound)
		return
	}
	defer imageReader.Close()

	imageBytes, err := io.ReadAll(imageReader)
	if err != nil {
		logger.Errorf("%v", err)
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(imageBytes)
}
