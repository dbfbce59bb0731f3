package job

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.POST("", SubmitJob)
		jobs.GET("", ListJobs)
		jobs.GET("/active", ListActiveJobs)
		jobs.POST("/status", BatchJobStatus)
		jobs.GET("/:id", GetJobDetail)
		jobs.GET("/:id/status", GetJobStatus)
		jobs.GET("/:id/ws", StreamJobProgress)
		jobs.POST("/:id/cancel", CancelJob)
	}
}
