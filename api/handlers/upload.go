package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/familyrecipes/family-recipes-api/api"
	"github.com/familyrecipes/family-recipes-api/config"
	"github.com/familyrecipes/family-recipes-api/storage"
)

// uploads are capped at 8 MiB
const maxUploadBytes = 8 << 20

// Upload exported for testing purposes
type Upload struct {
	Store *storage.SpacesService
}

// UploadImageHandler stores a multipart image and returns its public URL.
// The URL is meant to be set as a recipe or family image afterwards.
func (up Upload) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := api.RequestUserID(r)
	if err != nil {
		config.ErrorStatus("failed to resolve authenticated user", http.StatusUnauthorized, w, err)
		return
	}

	if up.Store == nil {
		config.ErrorStatus("image storage not configured", http.StatusServiceUnavailable, w, fmt.Errorf("no object store client"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		config.ErrorStatus("image file required", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
	default:
		config.ErrorStatus("unsupported image type", http.StatusBadRequest, w, fmt.Errorf("content type %q", contentType))
		return
	}

	key := fmt.Sprintf("images/%s/%d%s", actor.Hex(), time.Now().UnixNano(), filepath.Ext(header.Filename))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	url, err := up.Store.UploadImage(ctx, key, contentType, file)
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusServiceUnavailable, w, err)
		return
	}

	zap.S().Infow("image uploaded", "key", key, "userId", actor.Hex())
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"url": url})
}
