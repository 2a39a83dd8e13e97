package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/internal/services"
)

const birthDateLayout = "2006-01-02"

// UserHandler serves account and relationship list routes.
type UserHandler struct {
	users *services.UserService
	lists *services.ListService
	log   logrus.FieldLogger
}

func NewUserHandler(users *services.UserService, lists *services.ListService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, lists: lists, log: log}
}

// listRoute binds a URL segment to a relationship list and the body field
// that carries the item id.
type listRoute struct {
	segment string
	list    services.ListName
	param   string
}

var listRoutes = []listRoute{
	{segment: "favorite-movies", list: services.FavoriteMovies, param: "movie_id"},
	{segment: "to-watch-movies", list: services.ToWatchMovies, param: "movie_id"},
	{segment: "favorite-actors", list: services.FavoriteActors, param: "actor_id"},
}

// UserRouter registers user routes on the given router. Registration is
// public; everything else requires authMiddleware.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/", handler.Register)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Get("/{id}", handler.GetUser)
		r.Patch("/{id}", handler.UpdateUser)
		r.Delete("/{id}", handler.DeleteUser)

		for _, route := range listRoutes {
			r.Get("/{id}/"+route.segment, handler.GetList(route.list))
			itemPath := "/{id}/" + route.segment + "/{" + route.param + "}"
			r.Patch(itemPath, handler.EditList(route.list, services.Add, route.param))
			r.Delete(itemPath, handler.EditList(route.list, services.Remove, route.param))
		}
	})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if !validateRequest(w, req) {
		return
	}

	in := services.NewUser{Username: req.Username, Password: req.Password, Email: req.Email}
	if req.BirthDate != "" {
		birth, _ := time.Parse(birthDateLayout, req.BirthDate)
		in.BirthDate = &birth
	}

	user, err := h.users.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), callerID, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update and responds with the changed fields.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !validateRequest(w, req) {
		return
	}

	changes := services.UserChanges{Username: req.Username, Password: req.Password, Email: req.Email}
	if req.BirthDate != nil {
		birth, _ := time.Parse(birthDateLayout, *req.BirthDate)
		changes.BirthDate = &birth
	}

	updated, err := h.users.Update(r.Context(), callerID, pathParam(r, "id"), changes)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.caller(w, r)
	if !ok {
		return
	}

	msg, err := h.users.Delete(r.Context(), callerID, pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeText(w, http.StatusOK, msg)
}

// GetList returns the referenced documents of a list, or the raw ids with
// ?populate=false.
func (h *UserHandler) GetList(list services.ListName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := h.caller(w, r)
		if !ok {
			return
		}

		populate := r.URL.Query().Get("populate") != "false"
		result, err := h.lists.List(r.Context(), callerID, pathParam(r, "id"), list, populate)
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// EditList adds or removes the item named by the param path segment. The
// body must repeat the same id under the same key.
func (h *UserHandler) EditList(list services.ListName, kind services.EditKind, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, ok := h.caller(w, r)
		if !ok {
			return
		}

		body := map[string]any{}
		if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		bodyItemID, _ := body[param].(string)

		msg, err := h.lists.EditList(r.Context(), callerID, pathParam(r, "id"), bodyItemID, services.ListEdit{
			Kind: kind,
			List: list,
			Item: pathParam(r, param),
		})
		if err != nil {
			writeServiceError(w, r, h.log, err)
			return
		}
		writeText(w, http.StatusCreated, msg)
	}
}

func (h *UserHandler) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, err := subjectFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return callerID, true
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=6,alphanum"`
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	BirthDate string `json:"birthDate" validate:"omitempty,isodate"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=6,alphanum"`
	Password  *string `json:"password" validate:"omitempty,min=1"`
	Email     *string `json:"email" validate:"omitempty,email"`
	BirthDate *string `json:"birthDate" validate:"omitempty,isodate"`
}
