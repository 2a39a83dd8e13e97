package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/internal/services"
)

// MovieHandler serves movies and the genre and director data embedded in them.
type MovieHandler struct {
	catalog *services.CatalogService
	log     logrus.FieldLogger
}

func NewMovieHandler(catalog *services.CatalogService, log logrus.FieldLogger) *MovieHandler {
	return &MovieHandler{catalog: catalog, log: log}
}

// MovieRouter registers movie, genre and director routes on the given router.
func MovieRouter(r chi.Router, handler *MovieHandler) {
	r.Get("/movies", handler.ListMovies)
	r.Get("/movies/{name}", handler.GetMovie)
	r.Get("/movies/{name}/stars", handler.GetMovieStars)
	r.Get("/featured-movies", handler.FeaturedMovies)
	r.Get("/favorite-movies", handler.FavoriteMovies)
	r.Get("/genres/{name}", handler.GetGenre)
	r.Get("/directors/{name}", handler.GetDirector)
}

// ListMovies returns every movie. Query parameters sort the result, for
// example ?rating=-1&releaseYear=1.
func (h *MovieHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	order, err := services.ParseSort(sortParams(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	movies, err := h.catalog.Movies(r.Context(), order)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, movies)
}

func (h *MovieHandler) GetMovie(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.catalog.Movie(r.Context(), pathParam(r, "name")))
}

func (h *MovieHandler) GetMovieStars(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.catalog.MovieStars(r.Context(), pathParam(r, "name")))
}

func (h *MovieHandler) GetGenre(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.catalog.Genre(r.Context(), pathParam(r, "name")))
}

func (h *MovieHandler) GetDirector(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.catalog.Director(r.Context(), pathParam(r, "name")))
}

func (h *MovieHandler) FeaturedMovies(w http.ResponseWriter, r *http.Request) {
	names, err := h.catalog.FeaturedMovies(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *MovieHandler) FavoriteMovies(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.catalog.FavoriteMovies(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *MovieHandler) respond(w http.ResponseWriter, r *http.Request) func(any, error) {
	return func(result any, err error) {
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
