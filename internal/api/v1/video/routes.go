package video

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	videos := router.Group("/videos")
	{
		videos.POST("", CreateVideo)
		videos.GET("/:id", GetVideo)
	}
}
