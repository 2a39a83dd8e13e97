package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/internal/storage"
)

// AssetStore opens stored objects by key.
type AssetStore interface {
	Get(ctx context.Context, key string) (*storage.Object, error)
}

// AssetHandler streams static assets such as posters from object storage.
type AssetHandler struct {
	assets AssetStore
	log    logrus.FieldLogger
}

func NewAssetHandler(assets AssetStore, log logrus.FieldLogger) *AssetHandler {
	return &AssetHandler{assets: assets, log: log}
}

// AssetRouter registers the asset route on the given router.
func AssetRouter(r chi.Router, handler *AssetHandler) {
	r.Get("/*", handler.Serve)
}

func (h *AssetHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := storage.CleanKey(chi.URLParam(r, "*"))
	if key == "" {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	obj, err := h.assets.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		h.log.WithError(err).WithField("key", key).Error("open asset")
		writeError(w, http.StatusInternalServerError, "failed to load asset")
		return
	}
	defer obj.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = obj.ContentType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj); err != nil {
		h.log.WithError(err).WithField("key", key).Warn("stream asset")
	}
}
