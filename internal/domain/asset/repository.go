package asset

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"profilevault/internal/domain/user"
)

// Repository persists assets, their version history and the owner's back-reference.
// History is never loaded implicitly; GetWithVersions is the explicit join step.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Asset, error)
	GetWithVersions(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
	// CreateForOwner inserts a, its single initial version and links the owner to it.
	CreateForOwner(ctx context.Context, a *Asset) error
	// AppendVersion stores a's current pointers and v, provided a.Revision is still current.
	AppendVersion(ctx context.Context, a *Asset, v *Version) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	var a Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetWithVersions(ctx context.Context, id string) (*Asset, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("asset_id = ?", a.ID).
		Order("version_number ASC").
		Find(&a.Versions).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context) ([]*Asset, error) {
	var assets []*Asset
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&assets).Error
	return assets, err
}

func (r *repository) CreateForOwner(ctx context.Context, a *Asset) error {
	if len(a.Versions) != 1 || a.Versions[0].VersionNumber != 1 {
		return errors.New("new asset must carry exactly version 1")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner user.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", a.OwnerID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrUserNotFound
			}
			return err
		}
		if owner.ProfileAssetID != nil {
			return ErrConcurrencyConflict
		}

		if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
			return translateWriteErr(err)
		}
		v := &a.Versions[0]
		v.AssetID = a.ID
		if err := tx.Create(v).Error; err != nil {
			return translateWriteErr(err)
		}

		res := tx.Model(&user.User{}).
			Where("id = ? AND profile_asset_id IS NULL", a.OwnerID).
			Update("profile_asset_id", a.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}
		return nil
	})
}

func (r *repository) AppendVersion(ctx context.Context, a *Asset, v *Version) error {
	expected := a.Revision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Asset{}).
			Where("id = ? AND revision = ?", a.ID, expected).
			Updates(map[string]any{
				"primary_key":       a.PrimaryKey,
				"thumbnail_key":     a.ThumbnailKey,
				"original_name":     a.OriginalName,
				"mime_type":         a.MimeType,
				"primary_mime_type": a.PrimaryMimeType,
				"size_bytes":        a.SizeBytes,
				"checksum":          a.Checksum,
				"updated_at":        a.UpdatedAt,
				"updated_by":        a.UpdatedBy,
				"revision":          expected + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}

		v.AssetID = a.ID
		if err := tx.Create(v).Error; err != nil {
			return translateWriteErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.Revision = expected + 1
	a.Versions = append(a.Versions, *v)
	return nil
}

// translateWriteErr turns unique violations into ErrConcurrencyConflict: both the owner index
// and the (asset_id, version_number) index only collide when another writer got there first.
func translateWriteErr(err error) error {
	if isUniqueConstraintError(err) {
		return ErrConcurrencyConflict
	}
	return err
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}
