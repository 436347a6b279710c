package api

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/validation"
)

// Envelope is the {data, message?} wrapper every response uses.
type Envelope struct {
	Data    json.RawMessage
	Message string
}

// HasData reports whether data was present and not null.
func (e Envelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func parseEnvelope(body []byte) (Envelope, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Envelope{}, nil
	}
	if err := validation.ValidateEnvelope(body); err != nil {
		return Envelope{}, err
	}
	env := Envelope{Message: gjson.GetBytes(body, "message").String()}
	if data := gjson.GetBytes(body, "data"); data.Exists() {
		env.Data = json.RawMessage(data.Raw)
	}
	return env, nil
}

// serverMessage pulls "message" out of an error body, tolerating bodies
// that are not envelopes at all.
func serverMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	msg := gjson.GetBytes(body, "message")
	if msg.Type != gjson.String {
		return ""
	}
	return msg.String()
}

// ListResult is the tagged outcome of reading a collection payload:
// either Items or Err is meaningful.
type ListResult[T any] struct {
	Items []T
	Err   error
}

func (r ListResult[T]) OK() bool { return r.Err == nil }

// OrEmpty is the coerced view: the items, or an empty non-nil slice when the
// payload had the wrong shape.
func (r ListResult[T]) OrEmpty() []T {
	if r.Err != nil || r.Items == nil {
		return []T{}
	}
	return r.Items
}

// wrapperKeys are probed, in order, when a collection arrives wrapped in an
// object instead of as a bare array.
var wrapperKeys = []string{"items", "results", "data"}

// DecodeList reads a collection payload. Bare arrays decode directly; an
// object carrying an array under one of keys (or a common wrapper key) is
// unwrapped. Anything else is a SHAPE_MISMATCH.
func DecodeList[T any](raw json.RawMessage, keys ...string) ListResult[T] {
	parsed := gjson.ParseBytes(raw)

	switch {
	case len(bytes.TrimSpace(raw)) == 0 || parsed.Type == gjson.Null:
		return ListResult[T]{Err: errors.NewShapeMismatchError("array", "null")}

	case parsed.IsArray():
		return decodeItems[T](parsed.Raw)

	case parsed.IsObject():
		probe := make([]string, 0, len(keys)+len(wrapperKeys))
		probe = append(append(probe, keys...), wrapperKeys...)
		for _, key := range probe {
			if inner := parsed.Get(key); inner.IsArray() {
				return decodeItems[T](inner.Raw)
			}
		}
		return ListResult[T]{Err: errors.NewShapeMismatchError("array", "object")}

	default:
		return ListResult[T]{Err: errors.NewShapeMismatchError("array", parsed.Type.String())}
	}
}

func decodeItems[T any](raw string) ListResult[T] {
	items := []T{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return ListResult[T]{Err: errors.NewDecodeError("list payload", err)}
	}
	return ListResult[T]{Items: items}
}

// decodeOne reads a single-object payload.
func decodeOne[T any](env Envelope, what string) (T, error) {
	var out T
	if !env.HasData() {
		return out, errors.NewShapeMismatchError(what, "no data")
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, errors.NewDecodeError(what, err)
	}
	return out, nil
}
