package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/myflix-app/apiserver/internal/services"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every JSON failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

func subjectFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok || strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(toJSON(value))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps a service error to its status. Internal failures
// are logged with their cause; clients only see the generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	status := services.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeError(w, status, services.Message(err))
}

// decodeJSON reads a JSON body of bounded size into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Welcome answers the API root.
func Welcome(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "Welcome to the myFlix API")
}
