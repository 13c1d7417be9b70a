package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Entry is one keyed element of an Entries map.
type Entry[T any] struct {
	Key   string
	Value T
}

// Entries is an object keyed by annotation identifier that keeps the order in
// which the keys appear in the source document. It encodes as a plain
// JSON/BSON object.
type Entries[T any] []Entry[T]

// Get returns the value stored under key.
func (e Entries[T]) Get(key string) (T, bool) {
	for _, entry := range e {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	var zero T
	return zero, false
}

// Index builds a lookup map from key to value. Later duplicates win.
func (e Entries[T]) Index() map[string]T {
	out := make(map[string]T, len(e))
	for _, entry := range e {
		out[entry.Key] = entry.Value
	}
	return out
}

// Values returns the values in document order.
func (e Entries[T]) Values() []T {
	out := make([]T, 0, len(e))
	for _, entry := range e {
		out = append(out, entry.Value)
	}
	return out
}

// Set replaces the value under key or appends a new entry.
func (e *Entries[T]) Set(key string, value T) {
	for i := range *e {
		if (*e)[i].Key == key {
			(*e)[i].Value = value
			return
		}
	}
	*e = append(*e, Entry[T]{Key: key, Value: value})
}

func (e Entries[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal entry %q: %w", entry.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *Entries[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := Entries[T]{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value T
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode entry %q: %w", key, err)
		}
		out = append(out, Entry[T]{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*e = out
	return nil
}

func (e Entries[T]) MarshalBSON() ([]byte, error) {
	doc := make(bson.D, 0, len(e))
	for _, entry := range e {
		doc = append(doc, bson.E{Key: entry.Key, Value: entry.Value})
	}
	return bson.Marshal(doc)
}

func (e *Entries[T]) UnmarshalBSON(data []byte) error {
	if len(data) == 0 {
		*e = nil
		return nil
	}

	elems, err := bson.Raw(data).Elements()
	if err != nil {
		return err
	}

	out := make(Entries[T], 0, len(elems))
	for _, elem := range elems {
		var value T
		if err := elem.Value().Unmarshal(&value); err != nil {
			return fmt.Errorf("decode entry %q: %w", elem.Key(), err)
		}
		out = append(out, Entry[T]{Key: elem.Key(), Value: value})
	}

	*e = out
	return nil
}
