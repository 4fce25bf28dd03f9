package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"iris/internal/apperr"
)

// JSONResponse sends a JSON response and ensures slices are never null
//
// IMPORTANT: nil slices are encoded as "null" by encoding/json, which breaks
// frontends that expect arrays. Always respond through this helper.
//
// Example:
//
//	JSONResponse(w, http.StatusOK, ideas)  // nil slices become []
func JSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(normalizeSlices(data)); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondWithError writes {"error": message}
func respondWithError(w http.ResponseWriter, code int, message string) {
	JSONResponse(w, code, map[string]string{"error": message})
}

// respondError maps a service error to its status code. Server-side failures
// are logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithError(w, status, ErrMsgInternal)
		return
	}
	respondWithError(w, status, err.Error())
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty")
		}
		return apperr.Validation(ErrMsgInvalidRequestBody + ": " + err.Error())
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data any) any {
	if data == nil {
		return data
	}
	return normalizeValue(reflect.ValueOf(data)).Interface()
}

func normalizeValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() || v.Elem().Type() == timeType {
			return v
		}
		result := reflect.New(v.Elem().Type())
		result.Elem().Set(normalizeValue(v.Elem()))
		return result

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			result.Index(i).Set(normalizeValue(v.Index(i)))
		}
		return result

	case reflect.Struct:
		if v.Type() == timeType {
			return v
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := result.Field(i)
			// Skip unexported fields
			if !field.CanSet() {
				continue
			}
			field.Set(normalizeValue(v.Field(i)))
		}
		return result

	default:
		return v
	}
}
