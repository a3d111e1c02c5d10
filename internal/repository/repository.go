package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// Update saves every column of user
	Update(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// LockByID loads a user and holds a row lock until the transaction ends
	// on drivers that support it
	LockByID(id uint64) (*models.User, error)

	// UsernameTaken reports whether any user already has username
	UsernameTaken(username string) (bool, error)

	// EmailTaken reports whether any user already has email
	EmailTaken(email string) (bool, error)

	// FindByIDs returns the users among ids that exist
	FindByIDs(ids []uint64) ([]models.User, error)

	// List searches users by username, email, first or last name
	List(search string, page utils.PaginationParams) ([]models.User, int64, error)
}

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	Search string
	Page   utils.PaginationParams
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and its initial member rows
	Create(project *models.Project, memberIDs []uint64) error

	// FindByID finds a project with its owner and members loaded
	FindByID(id uint64) (*models.Project, error)

	// List retrieves the projects visible to actor
	List(actor authz.Actor, filter ProjectFilter) ([]models.Project, int64, error)

	// Update saves the project's own columns
	Update(project *models.Project) error

	// Delete soft deletes a project together with its tasks and removes its memberships
	Delete(id uint64) error

	// AddMember inserts a membership row
	AddMember(projectID, userID uint64) error

	// RemoveMember deletes a membership row
	RemoveMember(projectID, userID uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	AssigneeID    *uint64
	DueAfter      *time.Time
	DueBefore     *time.Time
	Search        string
	SortByDueDate bool
	Page          utils.PaginationParams
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task with its project, project members, and assignee loaded
	FindByID(id uint64) (*models.Task, error)

	// List retrieves the tasks matched by scope and filter
	List(scope func(*gorm.DB) *gorm.DB, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves the task's own columns
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	FindByTask(taskID, id uint64) (*models.Comment, error)
	ListByTask(taskID uint64) ([]models.Comment, error)
	Update(comment *models.Comment) error
	Delete(id uint64) error
}

// AttachmentRepository defines the interface for attachment data access
type AttachmentRepository interface {
	Create(attachment *models.Attachment) error
	FindByTask(taskID, id uint64) (*models.Attachment, error)
	ListByTask(taskID uint64) ([]models.Attachment, error)
	Delete(id uint64) error
}

// ActivityRepository appends to and reads the activity trail
type ActivityRepository interface {
	Create(entry *models.ActivityLog) error
	ListByProject(projectID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error)
	ListByTask(taskID uint64, page utils.PaginationParams) ([]models.ActivityLog, int64, error)
}

// NotificationRepository defines the interface for the per-user inbox
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListByRecipient(recipientID uint64, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, int64, error)
	FindForRecipient(id, recipientID uint64) (*models.Notification, error)
	MarkRead(id uint64) error
	MarkAllRead(recipientID uint64) (int64, error)
}

// PasswordResetTokenRepository defines the interface for reset token data access
type PasswordResetTokenRepository interface {
	// Rotate marks every unused token of token.UserID as used and stores token
	Rotate(token *models.PasswordResetToken) error

	// FindByToken finds a token by its opaque value
	FindByToken(token string) (*models.PasswordResetToken, error)

	// Consume flips is_used on an unused token. It reports false when another
	// caller consumed the token first.
	Consume(id uint64) (bool, error)
}

// Store bundles every repository over one *gorm.DB so that a service can run
// a whole operation against a single transaction.
type Store struct {
	db *gorm.DB

	Users         UserRepository
	Projects      ProjectRepository
	Tasks         TaskRepository
	Comments      CommentRepository
	Attachments   AttachmentRepository
	Activity      ActivityRepository
	Notifications NotificationRepository
	ResetTokens   PasswordResetTokenRepository
}

// NewStore creates a Store backed by db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Projects:      NewProjectRepository(db),
		Tasks:         NewTaskRepository(db),
		Comments:      NewCommentRepository(db),
		Attachments:   NewAttachmentRepository(db),
		Activity:      NewActivityRepository(db),
		Notifications: NewNotificationRepository(db),
		ResetTokens:   NewPasswordResetTokenRepository(db),
	}
}

// WithContext returns a Store whose queries observe ctx
func (s *Store) WithContext(ctx context.Context) *Store {
	return NewStore(s.db.WithContext(ctx))
}

// Transaction runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

func likePattern(search string) string {
	return "%" + search + "%"
}
