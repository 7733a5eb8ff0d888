package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/sakif/momentkeep/internal/apperror"
)

// maxJSONBody caps JSON request bodies. Journal content may be a client-side
// encrypted blob, so this is generous.
const maxJSONBody = 4 << 20

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// snakeKey converts "categoryId" to "category_id" and lowercases the rest.
func snakeKey(key string) string {
	return strings.ToLower(camelBoundary.ReplaceAllString(key, "${1}_${2}"))
}

// normalizeKeys rewrites the top-level keys of a JSON object to snake_case.
// "userid" (any case) becomes "user_id" unless user_id is also present.
// When two keys normalize to the same name the snake_case original wins.
func normalizeKeys(raw map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		snake := snakeKey(key)
		if _, exists := out[snake]; exists && key != snake {
			continue
		}
		out[snake] = value
	}
	if _, ok := out["user_id"]; !ok {
		if v, ok := out["userid"]; ok {
			out["user_id"] = v
		}
	}
	delete(out, "userid")
	return out
}

// decodeBody reads a JSON object from the request, normalizes its keys and
// decodes it into dst. A missing, empty or non-object body is a validation
// error; so is anything over maxJSONBody.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return apperror.ValidationFailed("body", "No data provided")
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.PayloadTooLarge(maxErr.Limit)
		}
		return apperror.ValidationFailed("body", "could not read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return apperror.ValidationFailed("body", "No data provided")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return apperror.ValidationFailed("body", "request body must be a JSON object")
	}

	normalized, err := json.Marshal(normalizeKeys(raw))
	if err != nil {
		return apperror.ValidationFailed("body", "request body must be a JSON object")
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.ValidationFailed(typeErr.Field, "invalid value for "+typeErr.Field)
		}
		return apperror.ValidationFailed("body", "invalid request body: "+err.Error())
	}
	return nil
}
