package handlers

import (
	"bytes"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// orderedDoc renders a bson.D as a JSON object keeping field order.
type orderedDoc bson.D

func (d orderedDoc) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, elem := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(elem.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(toJSON(elem.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// toJSON converts document values into types encoding/json renders the way
// clients expect: ordered objects, plain arrays, RFC 3339 dates and hex ids.
func toJSON(v any) any {
	switch typed := v.(type) {
	case bson.D:
		return orderedDoc(typed)
	case []bson.D:
		out := make([]any, len(typed))
		for i, doc := range typed {
			out[i] = orderedDoc(doc)
		}
		return out
	case bson.A:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = toJSON(item)
		}
		return out
	case bson.M:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = toJSON(item)
		}
		return out
	case bson.DateTime:
		return typed.Time().UTC().Format(time.RFC3339Nano)
	case bson.ObjectID:
		return typed.Hex()
	case bson.Decimal128:
		return typed.String()
	default:
		return v
	}
}
