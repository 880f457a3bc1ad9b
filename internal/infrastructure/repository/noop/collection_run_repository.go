// Package noop provides a do-nothing audit repository for deployments
// without a database.
package noop

import (
	"context"

	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
)

type CollectionRunRepository struct{}

var _ collectionrun.Repository = CollectionRunRepository{}

func (CollectionRunRepository) Record(context.Context, collectionrun.Run) error {
	return nil
}

func (CollectionRunRepository) ListRecent(context.Context, string, int) ([]collectionrun.Run, error) {
	return nil, nil
}
