package asset

import "time"

type VersionView struct {
	VersionNumber int       `json:"versionNumber" yaml:"version_number"`
	PrimaryKey    string    `json:"key" yaml:"key"`
	ThumbnailKey  string    `json:"keyThumb" yaml:"key_thumb"`
	SizeBytes     int64     `json:"size" yaml:"size"`
	MimeType      string    `json:"mimeType" yaml:"mime_type"`
	Checksum      string    `json:"checksum" yaml:"checksum"`
	CreatedBy     string    `json:"createdBy,omitempty" yaml:"created_by,omitempty"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
}

// View is the externally exposed shape of an Asset. Row ids of versions, the owner column
// and the optimistic revision stay internal.
type View struct {
	ID           string        `json:"id" yaml:"id"`
	PrimaryKey   string        `json:"key" yaml:"key"`
	ThumbnailKey string        `json:"keyThumb" yaml:"key_thumb"`
	OriginalName string        `json:"originalName" yaml:"original_name"`
	MimeType     string        `json:"mimeType" yaml:"mime_type"`
	SizeBytes    int64         `json:"size" yaml:"size"`
	Type         AssetClass    `json:"type" yaml:"type"`
	Checksum     string        `json:"checksum" yaml:"checksum"`
	Versions     []VersionView `json:"versions" yaml:"versions"`
	CreatedBy    string        `json:"createdBy,omitempty" yaml:"created_by,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" yaml:"created_at"`
	UpdatedBy    string        `json:"updatedBy,omitempty" yaml:"updated_by,omitempty"`
	UpdatedAt    time.Time     `json:"updatedAt" yaml:"updated_at"`
}

func PublicView(a *Asset) View {
	v := View{
		ID:           a.ID,
		PrimaryKey:   a.PrimaryKey,
		ThumbnailKey: a.ThumbnailKey,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		SizeBytes:    a.SizeBytes,
		Type:         a.AssetClass,
		Checksum:     a.Checksum,
		Versions:     make([]VersionView, 0, len(a.Versions)),
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if a.UpdatedBy != nil {
		v.UpdatedBy = *a.UpdatedBy
	}
	for _, ver := range a.Versions {
		v.Versions = append(v.Versions, VersionView{
			VersionNumber: ver.VersionNumber,
			PrimaryKey:    ver.PrimaryKey,
			ThumbnailKey:  ver.ThumbnailKey,
			SizeBytes:     ver.SizeBytes,
			MimeType:      ver.MimeType,
			Checksum:      ver.Checksum,
			CreatedBy:     ver.CreatedBy,
			CreatedAt:     ver.CreatedAt,
		})
	}
	return v
}
