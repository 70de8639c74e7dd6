package service

import (
	"context"

	directorymetrics "vprove/internal/directory/metrics"
	"vprove/internal/directory/models"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
)

// Factory spawns tenant directories for the registry. Spawn and initialize
// are one step from the caller's perspective: the factory only constructs,
// it never mediates later roster calls.
type Factory struct {
	store   Store
	metrics *directorymetrics.Metrics
}

func NewFactory(store Store, metrics *directorymetrics.Metrics) *Factory {
	return &Factory{store: store, metrics: metrics}
}

// Spawn allocates a fresh directory address, creates the instance, and
// initializes it with the given name and admin.
func (f *Factory) Spawn(ctx context.Context, name string, admin id.AccountID) (id.DirectoryID, error) {
	if admin.IsNil() {
		return id.DirectoryID{}, dErrors.New(dErrors.CodeBadRequest, "admin account is required")
	}

	dirID := id.NewDirectoryID()
	if err := f.store.CreateDirectory(ctx, &models.Directory{ID: dirID}); err != nil {
		return id.DirectoryID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create directory")
	}
	if err := f.store.InitializeDirectory(ctx, dirID, name, admin); err != nil {
		return id.DirectoryID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize directory")
	}

	if f.metrics != nil {
		f.metrics.IncrementDirectoriesSpawned()
	}
	return dirID, nil
}
