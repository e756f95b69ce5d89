package storage

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Serializer converts state to and from its stored text form.
type Serializer[T any] interface {
	Serialize(value T) (string, error)
	Deserialize(text string) (T, error)
}

// SerializerFuncs adapts a pair of functions to Serializer.
type SerializerFuncs[T any] struct {
	SerializeFunc   func(T) (string, error)
	DeserializeFunc func(string) (T, error)
}

// Serialize implements Serializer.
func (f SerializerFuncs[T]) Serialize(v T) (string, error) { return f.SerializeFunc(v) }

// Deserialize implements Serializer.
func (f SerializerFuncs[T]) Deserialize(s string) (T, error) { return f.DeserializeFunc(s) }

type jsonSerializer[T any] struct{}

// JSON returns the default serializer, encoding/json without indentation.
func JSON[T any]() Serializer[T] { return jsonSerializer[T]{} }

func (jsonSerializer[T]) Serialize(v T) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (jsonSerializer[T]) Deserialize(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

type yamlSerializer[T any] struct{}

// YAML returns a serializer backed by gopkg.in/yaml.v3.
func YAML[T any]() Serializer[T] { return yamlSerializer[T]{} }

func (yamlSerializer[T]) Serialize(v T) (string, error) {
	b, err := yaml.Marshal(v)
	return string(b), err
}

func (yamlSerializer[T]) Deserialize(s string) (T, error) {
	var v T
	err := yaml.Unmarshal([]byte(s), &v)
	return v, err
}
