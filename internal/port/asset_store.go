package port

import "context"

type AssetStore interface {
	// Upload stores an image (data URI or remote URL) under folder and
	// returns the asset reference to persist on the product.
	Upload(ctx context.Context, image, folder string) (string, error)

	// Destroy removes the asset behind a reference. Best effort: callers
	// log failures and move on.
	Destroy(ctx context.Context, assetRef string) error
}
