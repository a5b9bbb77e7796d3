package asset

import "github.com/gin-gonic/gin"

// RegisterRoutes registers profile-image routes under the protected group.
// The /user/:user_id variants run loadUser and guard before the shared handlers.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, loadUser, guard gin.HandlerFunc) {
	upload := r.Group("/upload")
	{
		upload.POST("/profile", h.UploadProfile)
		upload.GET("/profile/thumb", h.GetThumbnail)
		upload.GET("/profile/full", h.GetFull)
		upload.GET("/profile/versions", h.GetVersions)

		byUser := upload.Group("/user/:user_id", loadUser, guard)
		byUser.POST("/profile", h.UploadProfile)
		byUser.GET("/profile/thumb", h.GetThumbnail)
		byUser.GET("/profile/full", h.GetFull)
		byUser.GET("/profile/versions", h.GetVersions)
	}
}
