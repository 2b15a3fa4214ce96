package v1

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public API under /api. ownerAuth guards every
// /api/company route.
func RegisterRoutes(r gin.IRouter, company *CompanyHandler, health *HealthHandler, ownerAuth gin.HandlerFunc) {
	api := r.Group("/api")
	api.GET("/health", health.Check)

	companyGroup := api.Group("/company")
	companyGroup.Use(ownerAuth)
	{
		companyGroup.GET("/profile", company.GetProfile)
		companyGroup.POST("/profile", company.UpsertProfile)
		companyGroup.PUT("/profile", company.UpsertProfile)
		companyGroup.POST("/logo", company.UploadLogo)
		companyGroup.POST("/banner", company.UploadBanner)
	}
}
