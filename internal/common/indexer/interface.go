package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/project-tktt/salary-stats/internal/domain"
)

// Indexer defines the interface for snapshot storage backends
type Indexer interface {
	// BulkIndex stores multiple snapshots at once
	BulkIndex(ctx context.Context, snapshots []*domain.TermSnapshot) error
}

// Multi fans snapshots out to several indexers, stopping at the first error
type Multi []Indexer

func (m Multi) BulkIndex(ctx context.Context, snapshots []*domain.TermSnapshot) error {
	for _, idx := range m {
		if err := idx.BulkIndex(ctx, snapshots); err != nil {
			return err
		}
	}
	return nil
}

// BulkItemsError reports snapshots a backend rejected inside an otherwise
// accepted bulk request
type BulkItemsError struct {
	IDs []string
}

func (e *BulkItemsError) Error() string {
	return fmt.Sprintf("bulk rejected %d item(s): %s", len(e.IDs), strings.Join(e.IDs, ", "))
}
