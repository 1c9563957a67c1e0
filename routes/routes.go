package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ndhu-booking/room-booking-server/controllers"
	"github.com/ndhu-booking/room-booking-server/middleware"
	"github.com/ndhu-booking/room-booking-server/services"
)

// Deps gom các service và limiter cần cho router.
type Deps struct {
	Health    *controllers.HealthController
	Directory *controllers.DirectoryController
	Schedule  *controllers.ScheduleController
	Apps      *controllers.ApplicationController
	Auth      *controllers.AuthController
	Exports   *controllers.ExportController

	Authenticator middleware.Authenticator
	IntakeLimiter *middleware.IPRateLimiter
	LoginLimiter  *middleware.IPRateLimiter
}

// NewDeps dựng controller từ các service.
func NewDeps(
	health controllers.Pinger,
	directory *services.DirectoryService,
	schedule *services.ScheduleService,
	booking *services.BookingService,
	review *services.ReviewService,
	auth *services.AuthService,
	exports *services.ExportService,
	intake, login *middleware.IPRateLimiter,
) Deps {
	return Deps{
		Health:        controllers.NewHealthController(health),
		Directory:     controllers.NewDirectoryController(directory),
		Schedule:      controllers.NewScheduleController(schedule),
		Apps:          controllers.NewApplicationController(booking, review),
		Auth:          controllers.NewAuthController(auth),
		Exports:       controllers.NewExportController(exports),
		Authenticator: auth,
		IntakeLimiter: intake,
		LoginLimiter:  login,
	}
}

func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/health", d.Health.Check)

	requireAdmin := middleware.AuthAdmin(d.Authenticator)

	api := r.Group("/api")
	{
		api.GET("/rooms", d.Directory.PublicRooms)
		api.GET("/schedule", d.Schedule.Week)

		apps := api.Group("/applications")
		{
			apps.POST("", middleware.RateLimitByIP(d.IntakeLimiter), d.Apps.Submit)
			apps.POST("/verify", middleware.RateLimitByIP(d.IntakeLimiter), d.Apps.Verify)
			apps.GET("", requireAdmin, d.Apps.List)
			apps.GET("/:id", requireAdmin, d.Apps.Get)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimitByIP(d.LoginLimiter), d.Auth.Login)
			auth.POST("/verify", middleware.RateLimitByIP(d.LoginLimiter), d.Auth.Verify)
			auth.GET("/profile", requireAdmin, d.Auth.Profile)
			auth.POST("/logout", requireAdmin, d.Auth.Logout)
		}

		admin := api.Group("/admin")
		admin.Use(requireAdmin)
		{
			admin.POST("/review", d.Apps.Review)
			admin.GET("/rooms", d.Directory.AdminRooms)
			admin.POST("/rooms", d.Directory.ReplaceRooms)
			admin.GET("/admins", d.Directory.Admins)
			admin.POST("/admins", d.Directory.ReplaceAdmins)
			admin.POST("/exports", d.Exports.Create)
			admin.GET("/exports/:jobId", d.Exports.Get)
		}
	}
}
