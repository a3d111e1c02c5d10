package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

// Dependencies is everything the HTTP layer needs from the process.
type Dependencies struct {
	Store          *repository.Store
	Tokens         *services.TokenService
	Auth           *services.AuthService
	Users          *services.UserService
	Projects       *services.ProjectService
	Tasks          *services.TaskService
	Comments       *services.CommentService
	Attachments    *services.AttachmentService
	Activity       *services.ActivityService
	Notifications  *services.NotificationService
	MaxUploadBytes int64
	Log            *logrus.Logger
}

// RegisterRoutes mounts the API under /api plus the health and metrics endpoints.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	userHandler := NewUserHandler(deps.Users, deps.Log)
	projectHandler := NewProjectHandler(deps.Projects, deps.Log)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Log)
	commentHandler := NewCommentHandler(deps.Comments, deps.Log)
	attachmentHandler := NewAttachmentHandler(deps.Attachments, deps.MaxUploadBytes, deps.Log)
	activityHandler := NewActivityHandler(deps.Activity, deps.Log)
	notificationHandler := NewNotificationHandler(deps.Notifications, deps.Log)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Store, deps.Log)
	withID := middleware.RequireIDParams("id")

	r.GET("/health", Health(deps.Store.DB(), deps.Log))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	{
		// Auth routes (public unless noted)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/token/refresh", authHandler.Refresh)
			auth.POST("/google", authHandler.GoogleLogin)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.POST("/set-password", requireAuth, authHandler.SetPassword)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/:id", withID, userHandler.GetUser)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("", projectHandler.ListProjects)
			projects.POST("", projectHandler.CreateProject)

			project := projects.Group("/:id")
			project.Use(withID)
			{
				project.GET("", projectHandler.GetProject)
				project.PUT("", projectHandler.UpdateProject)
				project.PATCH("", projectHandler.UpdateProject)
				project.DELETE("", projectHandler.DeleteProject)
				project.POST("/members", projectHandler.AddMember)
				project.DELETE("/members/:user_id", middleware.RequireIDParams("user_id"), projectHandler.RemoveMember)
				project.POST("/add_member", projectHandler.AddMember)
				project.POST("/remove_member", projectHandler.RemoveMemberByBody)
				project.GET("/tasks", taskHandler.ListProjectTasks)
				project.POST("/tasks", taskHandler.CreateProjectTask)
				project.GET("/activity", activityHandler.ListProjectActivity)
			}
		}

		myTasks := api.Group("/my-tasks")
		myTasks.Use(requireAuth)
		{
			myTasks.GET("", taskHandler.ListPersonalTasks)
			myTasks.POST("", taskHandler.CreatePersonalTask)
		}

		task := api.Group("/tasks/:id")
		task.Use(requireAuth, withID)
		{
			task.GET("", taskHandler.GetTask)
			task.PUT("", taskHandler.UpdateTask)
			task.PATCH("", taskHandler.UpdateTask)
			task.DELETE("", taskHandler.DeleteTask)

			withComment := middleware.RequireIDParams("comment_id")
			task.GET("/comments", commentHandler.ListComments)
			task.POST("/comments", commentHandler.CreateComment)
			task.GET("/comments/:comment_id", withComment, commentHandler.GetComment)
			task.PUT("/comments/:comment_id", withComment, commentHandler.UpdateComment)
			task.PATCH("/comments/:comment_id", withComment, commentHandler.UpdateComment)
			task.DELETE("/comments/:comment_id", withComment, commentHandler.DeleteComment)

			withAttachment := middleware.RequireIDParams("attachment_id")
			task.GET("/attachments", attachmentHandler.ListAttachments)
			task.POST("/attachments", attachmentHandler.UploadAttachment)
			task.GET("/attachments/:attachment_id", withAttachment, attachmentHandler.GetAttachment)
			task.GET("/attachments/:attachment_id/download", withAttachment, attachmentHandler.DownloadAttachment)
			task.DELETE("/attachments/:attachment_id", withAttachment, attachmentHandler.DeleteAttachment)

			task.GET("/activity", activityHandler.ListTaskActivity)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/:id/read", withID, notificationHandler.MarkRead)
		}
	}
}
