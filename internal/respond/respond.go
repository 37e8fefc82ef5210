// Package respond turns repository outcomes into the uniform response
// envelope every endpoint returns.
package respond

import (
	"fmt"
	"reflect"

	"github.com/gogotex/todo-service/internal/repository"
	"github.com/gogotex/todo-service/pkg/logger"
	"github.com/gogotex/todo-service/pkg/metrics"
)

// Stable error codes shared by every resource.
const (
	CodeInvalidData = "module.invalid_data"
	CodeNotExisting = "module.not_existing"
)

// Internal returns the generic internal error code for a call site.
func Internal(code int) string {
	return fmt.Sprintf("module.internal_server_error:%d", code)
}

// MissingID returns the handler-level code for a request without an id,
// e.g. "todo.missing_id".
func MissingID(resource, field string) string {
	return fmt.Sprintf("%s.missing_%s", resource, field)
}

// Envelope is the body of every response.
type Envelope struct {
	OK      bool                             `json:"ok"`
	Data    map[string]any                   `json:"data,omitempty"`
	Error   string                           `json:"error,omitempty"`
	Details map[string]repository.FieldError `json:"details,omitempty"`
}

// Collection is implemented by results that know how to present themselves
// as a list, such as *repository.Listing.
type Collection interface {
	Collection() any
}

// Do runs op and wraps its outcome. code identifies the call site in
// internal error codes; resource keys the data on success. Do never
// panics: a panic inside op is reported as an internal error.
func Do[T any](op func() (T, error), code int, resource string) (env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			env = failure(fmt.Errorf("panic: %v", r), code, resource)
		}
	}()

	v, err := op()
	if err != nil {
		return failure(err, code, resource)
	}
	metrics.Responses.WithLabelValues(resource, "ok").Inc()
	return Envelope{OK: true, Data: map[string]any{resource: asList(v)}}
}

// Fail builds an error envelope for failures detected before the
// repository is called.
func Fail(code string) Envelope {
	return Envelope{OK: false, Error: code}
}

func failure(err error, code int, resource string) Envelope {
	env := Envelope{OK: false}
	switch kind := repository.KindOf(err); kind {
	case repository.KindNotFound:
		env.Error = CodeNotExisting
	case repository.KindValidation:
		env.Error = CodeInvalidData
	case repository.KindIllegalArgument, repository.KindInternal:
		env.Error = Internal(code)
		logger.With(logger.String("resource", resource), logger.Int("code", code), logger.String("kind", kind.String())).
			Errorf("request failed: %v", err)
	}
	if details := repository.DetailsOf(err); details != nil {
		env.Details = details
	}
	metrics.Responses.WithLabelValues(resource, env.Error).Inc()
	return env
}

// asList normalises a result into the list carried under the resource key.
func asList(v any) any {
	if c, ok := v.(Collection); ok {
		return c.Collection()
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return []any{}
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		return v
	case reflect.Pointer, reflect.Interface, reflect.Map:
		if rv.IsNil() {
			return []any{}
		}
	}
	return []any{v}
}
