package blogs

import "errors"

var (
	// ErrNotFound indicates the blog does not exist or is not owned by
	// the caller; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("blog not found")
	// ErrImageRequired indicates a publish was attempted without a featured image.
	ErrImageRequired = errors.New("featured image is required")
	// ErrAssetUpload indicates the featured image could not be stored.
	ErrAssetUpload = errors.New("asset upload failed")
	// ErrAssetDelete indicates the blog record was removed but its
	// featured image could not be deleted from the asset store.
	ErrAssetDelete = errors.New("asset deletion failed")
)
