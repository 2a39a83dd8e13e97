package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/myflix-app/apiserver/internal/services"
)

// pathParam returns the decoded value of a route parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// sortParams reads the query string as field=direction pairs in the order
// the client sent them. url.Values would lose that order.
func sortParams(r *http.Request) []services.SortParam {
	var params []services.SortParam
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		field, err := url.QueryUnescape(key)
		if err != nil {
			field = key
		}
		direction, err := url.QueryUnescape(value)
		if err != nil {
			direction = value
		}
		params = append(params, services.SortParam{Field: field, Direction: strings.TrimSpace(direction)})
	}
	return params
}
