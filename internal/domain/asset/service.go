package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"profilevault/internal/config"
	"profilevault/internal/domain/user"
	"profilevault/internal/pkg/digest"
	"profilevault/internal/pkg/imaging"
	"profilevault/internal/pkg/keylock"
	"profilevault/internal/pkg/storage"
	"profilevault/internal/pkg/validator"
)

// BlobStore resolves logical keys and moves derivative bytes in and out of storage.
type BlobStore interface {
	Resolve(ownerID, stem string) (string, error)
	Write(ctx context.Context, key string, data []byte) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// Deriver produces the primary image and thumbnail for an upload.
type Deriver interface {
	Derive(raw []byte, mimeType string) (*imaging.Derivatives, error)
}

// OwnerReader looks up the user that owns an asset.
type OwnerReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// UploadInput is one profile-image upload as received from the transport layer.
type UploadInput struct {
	OwnerID      string `validate:"required"`
	Principal    user.Principal
	Data         []byte
	MimeType     string
	OriginalName string `validate:"required,max=255"`
}

// Summary describes the committed result of an upload.
type Summary struct {
	AssetID          string `json:"asset_id"`
	VersionNumber    int    `json:"version_number"`
	PrimaryKey       string `json:"primary_key"`
	ThumbnailKey     string `json:"thumbnail_key"`
	Checksum         string `json:"checksum"`
	Created          bool   `json:"created"`
	PrimaryWritten   bool   `json:"-"`
	ThumbnailWritten bool   `json:"-"`
}

// Service runs the upload pipeline and serves stored derivatives back.
type Service struct {
	repo    Repository
	owners  OwnerReader
	store   BlobStore
	deriver Deriver
	locks   *keylock.Locker
	cfg     config.StorageConfig
}

func NewService(repo Repository, owners OwnerReader, store BlobStore, deriver Deriver, cfg config.StorageConfig) *Service {
	return &Service{
		repo:    repo,
		owners:  owners,
		store:   store,
		deriver: deriver,
		locks:   keylock.New(),
		cfg:     cfg,
	}
}

type derived struct {
	checksum     string
	primaryKey   string
	thumbnailKey string
	out          *imaging.Derivatives
}

// Upload validates the input and the owner, fingerprints and derives the image, writes both
// derivatives, and then commits metadata under the owner's lock. Validation failures happen
// before any I/O; write failures happen before any metadata is touched.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Summary, error) {
	if err := storage.ValidateOwnerID(in.OwnerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOwnerID, err)
	}
	if errs := validator.Validate(in); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	mimeType := normalizeMime(in.MimeType)
	if !s.cfg.MimeAllowed(mimeType) || !imaging.Supported(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	if len(in.Data) == 0 {
		return nil, ErrEmptyPayload
	}
	if int64(len(in.Data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(in.Data))
	}

	// Unknown owners fail here, before anything touches storage. commit reloads the owner
	// under the lock.
	if _, err := s.loadOwner(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	d, err := s.derive(in.OwnerID, in.Data, mimeType)
	if err != nil {
		return nil, err
	}

	var primaryWritten, thumbWritten bool
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		primaryWritten, err = s.store.Write(egCtx, d.primaryKey, d.out.Primary)
		return err
	})
	eg.Go(func() error {
		var err error
		thumbWritten, err = s.store.Write(egCtx, d.thumbnailKey, d.out.Thumbnail)
		return err
	})
	if err := eg.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	// Last point at which a departed caller can stop the run; past here the commit completes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock, err := s.locks.Lock(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	commitCtx := context.WithoutCancel(ctx)
	var sum *Summary
	for attempt := 0; ; attempt++ {
		sum, err = s.commit(commitCtx, in, mimeType, d)
		if errors.Is(err, ErrConcurrencyConflict) && attempt < s.cfg.CommitRetries {
			log.Printf("asset_commit_conflict owner_id=%s attempt=%d", in.OwnerID, attempt+1)
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	sum.PrimaryWritten = primaryWritten
	sum.ThumbnailWritten = thumbWritten
	log.Printf("asset_uploaded owner_id=%s principal_id=%s asset_id=%s version=%d checksum=%s created=%t primary_written=%t thumbnail_written=%t",
		in.OwnerID, in.Principal.ID, sum.AssetID, sum.VersionNumber, sum.Checksum, sum.Created, primaryWritten, thumbWritten)
	return sum, nil
}

func (s *Service) derive(ownerID string, raw []byte, mimeType string) (*derived, error) {
	checksum := digest.Fingerprint(raw)

	out, err := s.deriver.Derive(raw, mimeType)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedMedia):
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedMedia, err)
	case errors.Is(err, imaging.ErrImageTooLarge):
		return nil, fmt.Errorf("%w: %w", ErrPayloadTooLarge, err)
	case err != nil:
		return nil, fmt.Errorf("derive %s: %w", ownerID, err)
	}

	primaryKey, err := s.store.Resolve(ownerID, storage.PrimaryStem(checksum, out.PrimaryExt))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOwnerID, err)
	}
	thumbnailKey, err := s.store.Resolve(ownerID, storage.ThumbnailStem(checksum))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOwnerID, err)
	}

	return &derived{checksum: checksum, primaryKey: primaryKey, thumbnailKey: thumbnailKey, out: out}, nil
}

// commit performs the read-modify-write of the owner's asset. The caller holds the owner lock.
func (s *Service) commit(ctx context.Context, in UploadInput, mimeType string, d *derived) (*Summary, error) {
	owner, err := s.owners.GetByID(ctx, in.OwnerID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: owner %s", ErrNotFound, in.OwnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("load owner %s: %w", in.OwnerID, err)
	}

	now := time.Now().UTC()
	v := Version{
		PrimaryKey:   d.primaryKey,
		ThumbnailKey: d.thumbnailKey,
		SizeBytes:    int64(len(d.out.Primary)),
		MimeType:     d.out.PrimaryMimeType,
		Checksum:     d.checksum,
		CreatedBy:    in.Principal.ID,
		CreatedAt:    now,
	}

	if owner.ProfileAssetID == nil {
		v.VersionNumber = 1
		a := &Asset{
			OwnerID:    in.OwnerID,
			AssetClass: ClassProfilePhoto,
			CreatedBy:  in.Principal.ID,
			CreatedAt:  now,
			UpdatedAt:  now,
			Versions:   []Version{v},
		}
		applyCurrent(a, in, mimeType, d)
		if err := s.repo.CreateForOwner(ctx, a); err != nil {
			if errors.Is(err, user.ErrUserNotFound) {
				return nil, fmt.Errorf("%w: owner %s", ErrNotFound, in.OwnerID)
			}
			return nil, err
		}
		return summarize(a, 1, true), nil
	}

	a, err := s.repo.GetWithVersions(ctx, *owner.ProfileAssetID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("owner %s references missing asset %s", in.OwnerID, *owner.ProfileAssetID)
	}
	if err != nil {
		return nil, err
	}

	v.VersionNumber = len(a.Versions) + 1
	applyCurrent(a, in, mimeType, d)
	a.UpdatedAt = now
	updatedBy := in.Principal.ID
	a.UpdatedBy = &updatedBy
	if err := s.repo.AppendVersion(ctx, a, &v); err != nil {
		return nil, err
	}
	return summarize(a, v.VersionNumber, false), nil
}

func applyCurrent(a *Asset, in UploadInput, mimeType string, d *derived) {
	a.PrimaryKey = d.primaryKey
	a.ThumbnailKey = d.thumbnailKey
	a.OriginalName = in.OriginalName
	a.MimeType = mimeType
	a.PrimaryMimeType = d.out.PrimaryMimeType
	a.SizeBytes = int64(len(in.Data))
	a.Checksum = d.checksum
}

func summarize(a *Asset, version int, created bool) *Summary {
	return &Summary{
		AssetID:       a.ID,
		VersionNumber: version,
		PrimaryKey:    a.PrimaryKey,
		ThumbnailKey:  a.ThumbnailKey,
		Checksum:      a.Checksum,
		Created:       created,
	}
}

func normalizeMime(v string) string {
	if mt, _, err := mime.ParseMediaType(v); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(v))
}
