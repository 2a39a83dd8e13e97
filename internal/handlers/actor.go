package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/internal/services"
)

type ActorHandler struct {
	catalog *services.CatalogService
	log     logrus.FieldLogger
}

func NewActorHandler(catalog *services.CatalogService, log logrus.FieldLogger) *ActorHandler {
	return &ActorHandler{catalog: catalog, log: log}
}

// ActorRouter registers actor routes on the given router.
func ActorRouter(r chi.Router, handler *ActorHandler) {
	r.Get("/", handler.ListActors)
	r.Get("/{name}", handler.GetActor)
}

func (h *ActorHandler) ListActors(w http.ResponseWriter, r *http.Request) {
	order, err := services.ParseSort(sortParams(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	actors, err := h.catalog.Actors(r.Context(), order)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, actors)
}

func (h *ActorHandler) GetActor(w http.ResponseWriter, r *http.Request) {
	actor, err := h.catalog.Actor(r.Context(), pathParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, actor)
}
