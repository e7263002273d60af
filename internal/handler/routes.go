package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sunrise-academy/portal-api/internal/middleware"
	"github.com/sunrise-academy/portal-api/internal/models"
	"github.com/sunrise-academy/portal-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Admission *AdmissionHandler
	Student   *StudentHandler
	Linking   *LinkingHandler
	Audit     *AuditHandler
	Content   *ContentHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the API under the given prefix. Public marketing
// reads need no token; the portal areas are gated by role, with pending
// roles passing their target-audience gates.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	api := r.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register/student", h.Auth.RegisterStudent)
		authGroup.POST("/register/parent", h.Auth.RegisterParent)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", middleware.JWT(auth), h.Auth.Logout)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	// Public marketing content plus the walk-in application form. The
	// optional token ties an application to the submitting account.
	api.GET("/events", h.Content.ListEvents)
	api.GET("/notices", h.Content.ListNotices)
	api.POST("/admissions", middleware.OptionalJWT(auth), h.Admission.Submit)

	// Any authenticated identity may request an application; the service
	// scopes non-admins to the one bound to their own account.
	api.GET("/admissions/:id", middleware.JWT(auth), h.Admission.Get)

	admin := api.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/admissions", h.Admission.List)
		admin.POST("/admissions/:id/approve", h.Admission.Approve)
		admin.POST("/admissions/:id/reject", h.Admission.Reject)
		admin.PATCH("/admissions/:id/notes", h.Admission.UpdateNotes)
		admin.GET("/admissions/:id/letter", h.Admission.OfferLetter)

		admin.GET("/students", h.Student.List)
		admin.PATCH("/students/:id", h.Student.Update)

		admin.POST("/links/search", h.Linking.Search)
		admin.POST("/links", h.Linking.Link)
		admin.DELETE("/links", h.Linking.Unlink)
		admin.GET("/links/verify", h.Linking.Verify)
		admin.POST("/links/repair", h.Linking.Repair)

		admin.GET("/audit", h.Audit.List)
		admin.GET("/audit/export", h.Audit.ExportCSV)

		admin.GET("/users", h.Auth.ListUsers)

		admin.POST("/events", h.Content.CreateEvent)
		admin.PATCH("/events/:id", h.Content.UpdateEvent)
		admin.DELETE("/events/:id", h.Content.DeleteEvent)
		admin.POST("/notices", h.Content.CreateNotice)
		admin.DELETE("/notices/:id", h.Content.DeleteNotice)
		admin.POST("/resources", h.Content.CreateResource)
		admin.DELETE("/resources/:id", h.Content.DeleteResource)
	}

	students := api.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin, models.RoleStudent))
	{
		students.GET("/students/me", h.Student.GetOwn)
	}

	parents := api.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin, models.RoleParent))
	{
		parents.GET("/parents/me/students", h.Student.ListForParent)
	}

	// Record reads are shared: the service scopes what each role may see.
	shared := api.Group("", middleware.JWT(auth),
		middleware.RequireRoles(models.RoleAdmin, models.RoleStudent, models.RoleParent))
	{
		shared.GET("/students/:id", h.Student.Get)
		shared.GET("/resources", h.Content.ListResources)
	}
}
