package asset

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicView_HidesInternalFields(t *testing.T) {
	by := "admin-1"
	a := &Asset{
		ID:           "a-1",
		OwnerID:      "u-1",
		PrimaryKey:   "u-1/profile/abc.png",
		ThumbnailKey: "u-1/profile/thumbnail_abc.jpg",
		OriginalName: "me.png",
		MimeType:     "image/png",
		SizeBytes:    42,
		AssetClass:   ClassProfilePhoto,
		Checksum:     "abc",
		Revision:     3,
		CreatedAt:    time.Unix(0, 0).UTC(),
		UpdatedBy:    &by,
		Versions:     []Version{{ID: "v-1", AssetID: "a-1", VersionNumber: 1, PrimaryKey: "u-1/profile/abc.png"}},
	}

	b, err := json.Marshal(PublicView(a))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "u-1/profile/abc.png", m["key"])
	assert.Equal(t, "u-1/profile/thumbnail_abc.jpg", m["keyThumb"])
	assert.Equal(t, "profile_photo", m["type"])
	assert.Equal(t, "admin-1", m["updatedBy"])
	assert.NotContains(t, m, "revision")
	assert.NotContains(t, m, "owner_id")

	versions := m["versions"].([]any)
	require.Len(t, versions, 1)
	assert.NotContains(t, versions[0], "id")
	assert.Equal(t, float64(1), versions[0].(map[string]any)["versionNumber"])
}

func TestAssetClassValid(t *testing.T) {
	assert.True(t, ClassProfilePhoto.Valid())
	assert.True(t, ClassOther.Valid())
	assert.False(t, AssetClass("avatar").Valid())
}
