package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/uni-dcs/records-api/internal/middleware"
	"github.com/uni-dcs/records-api/internal/models"
	"github.com/uni-dcs/records-api/internal/service"
)

// Deps bundles everything RegisterRoutes needs.
type Deps struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Departments   *DepartmentHandler
	Sessions      *SessionHandler
	Courses       *CourseHandler
	Registrations *RegistrationHandler
	Results       *ResultHandler
	Exams         *ExamHandler
	Transcripts   *TranscriptHandler
	Statistics    *StatisticsHandler
	Imports       *ImportHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// RegisterRoutes mounts every API route under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, d Deps) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)
	student := middleware.RequireRoles(models.RoleStudent)

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(d.AuthService))

	authed.POST("/auth/logout", d.Auth.Logout)
	authed.POST("/auth/change-password", d.Auth.ChangePassword)
	authed.GET("/auth/me", d.Auth.Me)

	users := authed.Group("/users")
	users.GET("", admin, d.Users.List)
	users.POST("", admin, d.Users.Create)
	users.GET("/:id", middleware.RequireSelfOr(models.RoleAdmin), d.Users.Get)
	users.PUT("/:id", admin, d.Users.Update)
	users.DELETE("/:id", admin, d.Users.Deactivate)
	users.POST("/:id/activate", admin, d.Users.Activate)

	departments := authed.Group("/departments")
	departments.GET("", d.Departments.List)
	departments.GET("/:id", d.Departments.Get)
	departments.POST("", admin, d.Departments.Create)
	departments.PUT("/:id", admin, d.Departments.Update)
	departments.DELETE("/:id", admin, d.Departments.Delete)

	sessions := authed.Group("/sessions")
	sessions.GET("", d.Sessions.List)
	sessions.GET("/current", d.Sessions.Current)
	sessions.GET("/:id", d.Sessions.Get)
	sessions.POST("", admin, d.Sessions.Create)
	sessions.PUT("/:id", admin, d.Sessions.Update)
	sessions.POST("/:id/close", admin, d.Sessions.Close)
	sessions.POST("/:id/reopen", admin, d.Sessions.Reopen)
	sessions.POST("/:id/set-current", admin, d.Sessions.SetCurrent)
	sessions.DELETE("/:id", admin, d.Sessions.Delete)

	courses := authed.Group("/courses")
	courses.GET("", d.Courses.List)
	courses.GET("/:id", d.Courses.Get)
	courses.POST("", admin, d.Courses.Create)
	courses.PUT("/:id", staff, d.Courses.Update)
	courses.DELETE("/:id", admin, d.Courses.Delete)
	courses.GET("/:id/roster", staff, d.Courses.Roster)

	courses.GET("/:id/registration", student, d.Registrations.Status)
	courses.POST("/:id/register", student, d.Registrations.Register)
	courses.DELETE("/:id/register", student, d.Registrations.Unregister)
	courses.PUT("/:id/registration/settings", staff, d.Registrations.UpdateSettings)
	courses.POST("/:id/registration/open", staff, d.Registrations.Open)
	courses.POST("/:id/registration/close", staff, d.Registrations.Close)

	registration := authed.Group("/registration")
	registration.GET("/available", student, d.Registrations.Available)
	registration.GET("/mine", student, d.Registrations.Registered)
	registration.POST("/deadlines", admin, d.Registrations.BulkDeadlines)
	registration.GET("/statistics", staff, d.Registrations.Statistics)

	results := authed.Group("/results")
	results.GET("", d.Results.List)
	results.GET("/:id", d.Results.Get)
	results.POST("", staff, d.Results.Create)
	results.PUT("/:id", staff, d.Results.Update)
	results.DELETE("/:id", admin, d.Results.Delete)

	exams := authed.Group("/exams")
	exams.GET("", d.Exams.List)
	exams.GET("/:id", d.Exams.Get)
	exams.POST("", staff, d.Exams.Create)
	exams.PUT("/:id", staff, d.Exams.Update)
	exams.DELETE("/:id", staff, d.Exams.Delete)
	exams.POST("/:id/questions", staff, d.Exams.AddQuestion)
	exams.PUT("/:id/questions/:questionId", staff, d.Exams.UpdateQuestion)
	exams.DELETE("/:id/questions/:questionId", staff, d.Exams.DeleteQuestion)

	students := authed.Group("/students")
	students.GET("/:id/gpa", d.Transcripts.SessionGPA)
	students.GET("/:id/cgpa", d.Transcripts.CGPA)
	students.GET("/:id/transcript", d.Transcripts.Transcript)
	students.GET("/:id/transcript/export", d.Transcripts.Export)

	statistics := authed.Group("/statistics")
	statistics.GET("/session", staff, d.Statistics.Session)

	imports := authed.Group("/imports")
	imports.POST("/results", staff, d.Imports.Results)
	imports.POST("/students", admin, d.Imports.Students)
}
