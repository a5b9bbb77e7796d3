package asset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/imaging"
	"profilevault/internal/pkg/storage"
)

type Role string

const (
	RoleThumbnail Role = "thumbnail"
	RoleFull      Role = "full"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleThumbnail, RoleFull:
		return Role(s), nil
	case "thumb":
		return RoleThumbnail, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Blob is an open derivative ready to be streamed. The caller must close Body.
type Blob struct {
	ContentType string
	Filename    string
	Size        int64
	Body        io.ReadCloser
}

// Retrieve opens the owner's current derivative for role. Missing metadata and metadata that
// points at a missing blob both yield ErrNotFound.
func (s *Service) Retrieve(ctx context.Context, ownerID string, role Role) (*Blob, error) {
	if err := storage.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOwnerID, err)
	}

	a, err := s.currentAsset(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	key, contentType := a.PrimaryKey, a.PrimaryMimeType
	if role == RoleThumbnail {
		key, contentType = a.ThumbnailKey, imaging.MimeJPEG
	}
	if key == "" {
		return nil, fmt.Errorf("%w: asset %s has no %s", ErrNotFound, a.ID, role)
	}

	body, size, err := s.store.Open(ctx, key)
	switch {
	case errors.Is(err, storage.ErrBlobNotFound):
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	return &Blob{
		ContentType: contentType,
		Filename:    a.OriginalName,
		Size:        size,
		Body:        body,
	}, nil
}

// History returns the owner and their asset with the full version history.
func (s *Service) History(ctx context.Context, ownerID string) (*user.User, *Asset, error) {
	if err := storage.ValidateOwnerID(ownerID); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidOwnerID, err)
	}
	owner, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if owner.ProfileAssetID == nil {
		return owner, nil, fmt.Errorf("%w: owner %s", ErrNotFound, ownerID)
	}
	a, err := s.repo.GetWithVersions(ctx, *owner.ProfileAssetID)
	if err != nil {
		return owner, nil, err
	}
	return owner, a, nil
}

func (s *Service) currentAsset(ctx context.Context, ownerID string) (*Asset, error) {
	owner, err := s.loadOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.ProfileAssetID == nil {
		return nil, fmt.Errorf("%w: owner %s", ErrNotFound, ownerID)
	}
	return s.repo.GetByID(ctx, *owner.ProfileAssetID)
}

func (s *Service) loadOwner(ctx context.Context, ownerID string) (*user.User, error) {
	owner, err := s.owners.GetByID(ctx, ownerID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: owner %s", ErrNotFound, ownerID)
	}
	return owner, err
}

// Divergence reports an asset whose current pointer names a blob that is not on disk.
type Divergence struct {
	AssetID string `json:"asset_id" yaml:"asset_id"`
	OwnerID string `json:"owner_id" yaml:"owner_id"`
	Role    Role   `json:"role" yaml:"role"`
	Key     string `json:"key" yaml:"key"`
}

// Verify checks every asset's current primary and thumbnail blobs.
func (s *Service) Verify(ctx context.Context) ([]Divergence, error) {
	assets, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []Divergence
	for _, a := range assets {
		for _, c := range []struct {
			role Role
			key  string
		}{{RoleFull, a.PrimaryKey}, {RoleThumbnail, a.ThumbnailKey}} {
			ok, err := s.store.Exists(ctx, c.key)
			if err != nil && !errors.Is(err, storage.ErrInvalidKey) && !errors.Is(err, storage.ErrInvalidOwnerID) {
				return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
			}
			if !ok {
				out = append(out, Divergence{AssetID: a.ID, OwnerID: a.OwnerID, Role: c.role, Key: c.key})
			}
		}
	}
	return out, nil
}
