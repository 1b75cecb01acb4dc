package database

import (
	"context"
	"errors"
	"os"

	"github.com/AzielCF/az-bot/pkg/utils"
)

// JSONRepository keeps the whole document in one JSON file, fully overwritten on each write.
type JSONRepository struct {
	path string
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

func (r *JSONRepository) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (r *JSONRepository) Write(ctx context.Context, data []byte) error {
	return utils.WriteFileAtomic(r.path, data)
}

func (r *JSONRepository) Close() error {
	return nil
}
