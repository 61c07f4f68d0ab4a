package repo

import (
	"encoding/json"
	"fmt"
)

// jsonCodec marshals entities in and out of the doc column.
type jsonCodec[T any] struct{}

func (jsonCodec[T]) encode(entity T) (string, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return "", fmt.Errorf("repo: encode: %w", err)
	}
	return string(data), nil
}

func (jsonCodec[T]) decode(doc string) (T, error) {
	var entity T
	if err := json.Unmarshal([]byte(doc), &entity); err != nil {
		return entity, fmt.Errorf("repo: decode: %w", err)
	}
	return entity, nil
}
