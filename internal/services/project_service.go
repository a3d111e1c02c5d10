package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	store *repository.Store
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store *repository.Store) *ProjectService {
	return &ProjectService{store: store}
}

// ProjectInput carries create and update fields. Nil pointers are left
// unchanged on partial updates.
type ProjectInput struct {
	Name        *string
	Description *string
	MemberIDs   []uint64
}

// MembershipResult describes the outcome of a member change.
type MembershipResult struct {
	Changed bool
	Message string
}

// ListProjects returns the projects the actor owns or belongs to.
func (s *ProjectService) ListProjects(ctx context.Context, actor authz.Actor, filter repository.ProjectFilter) ([]models.Project, int64, error) {
	projects, total, err := s.store.WithContext(ctx).Projects.List(actor, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// CreateProject creates a project owned by actor. The owner is always a
// member; extra member ids must refer to existing users.
func (s *ProjectService) CreateProject(ctx context.Context, actor authz.Actor, input ProjectInput) (*models.Project, error) {
	name := ""
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
	}
	if name == "" {
		return nil, invalidField("name", "this field is required")
	}

	project := &models.Project{
		Name:    name,
		OwnerID: actor.ID,
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		memberIDs, err := resolveMemberIDs(tx, actor.ID, input.MemberIDs)
		if err != nil {
			return err
		}
		if err := tx.Projects.Create(project, memberIDs); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("created project '%s'", project.Name), &project.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	return loadProject(s.store.WithContext(ctx), project.ID)
}

func resolveMemberIDs(tx *repository.Store, ownerID uint64, requested []uint64) ([]uint64, error) {
	seen := map[uint64]bool{ownerID: true}
	ids := []uint64{ownerID}
	var extra []uint64
	for _, id := range requested {
		if !seen[id] {
			seen[id] = true
			extra = append(extra, id)
		}
	}
	if len(extra) == 0 {
		return ids, nil
	}

	users, err := tx.Users.FindByIDs(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	if len(users) != len(extra) {
		return nil, invalidField("member_ids", "one or more users do not exist")
	}
	return append(ids, extra...), nil
}

// GetProject returns a project the actor may read.
func (s *ProjectService) GetProject(ctx context.Context, actor authz.Actor, id uint64) (*models.Project, error) {
	project, err := loadProject(s.store.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckProject(actor, project, authz.ActionRead).Err(authz.ResourceProject, authz.ActionRead); err != nil {
		return nil, err
	}
	return project, nil
}

// UpdateProject applies input to the project. A full update requires a name.
func (s *ProjectService) UpdateProject(ctx context.Context, actor authz.Actor, id uint64, input ProjectInput, partial bool) (*models.Project, error) {
	if !partial && (input.Name == nil || strings.TrimSpace(*input.Name) == "") {
		return nil, invalidField("name", "this field is required")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, invalidField("name", "this field may not be blank")
	}

	var project *models.Project
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		var err error
		project, err = loadProject(tx, id)
		if err != nil {
			return err
		}
		if err := authz.CheckProject(actor, project, authz.ActionUpdate).Err(authz.ResourceProject, authz.ActionUpdate); err != nil {
			return err
		}

		if input.Name != nil {
			project.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			project.Description = *input.Description
		}
		if err := tx.Projects.Update(project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}

		verb := "updated"
		if partial {
			verb = "partially updated"
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("%s project '%s'", verb, project.Name), &project.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes the project with its tasks and memberships.
func (s *ProjectService) DeleteProject(ctx context.Context, actor authz.Actor, id uint64) error {
	return s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		project, err := loadProject(tx, id)
		if err != nil {
			return err
		}
		if err := authz.CheckProject(actor, project, authz.ActionDelete).Err(authz.ResourceProject, authz.ActionDelete); err != nil {
			return err
		}

		name := project.Name
		if err := tx.Projects.Delete(project.ID); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return recordActivity(tx, actor.ID, fmt.Sprintf("deleted project '%s'", name), nil, nil)
	})
}

// AddMember adds userID to the project. Adding an existing member is not an error.
func (s *ProjectService) AddMember(ctx context.Context, actor authz.Actor, projectID uint64, userID *uint64) (*MembershipResult, error) {
	if userID == nil {
		return nil, invalidField("user_id", "this field is required")
	}

	var result *MembershipResult
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		project, user, err := s.loadMembershipTarget(tx, actor, projectID, *userID)
		if err != nil {
			return err
		}

		if project.HasMember(user.ID) {
			result = &MembershipResult{Message: fmt.Sprintf("%s is already a member", user.Username)}
			return nil
		}

		if err := tx.Projects.AddMember(project.ID, user.ID); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		result = &MembershipResult{Changed: true, Message: fmt.Sprintf("added %s to the project", user.Username)}
		return recordActivity(tx, actor.ID, fmt.Sprintf("added member '%s' to project '%s'", user.Username, project.Name), &project.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveMember removes userID from the project. The owner cannot be removed;
// removing a non-member is not an error.
func (s *ProjectService) RemoveMember(ctx context.Context, actor authz.Actor, projectID uint64, userID *uint64) (*MembershipResult, error) {
	if userID == nil {
		return nil, invalidField("user_id", "this field is required")
	}

	var result *MembershipResult
	err := s.store.WithContext(ctx).Transaction(func(tx *repository.Store) error {
		project, user, err := s.loadMembershipTarget(tx, actor, projectID, *userID)
		if err != nil {
			return err
		}

		if project.IsOwner(user.ID) {
			return ErrCannotRemoveOwner
		}
		if !project.HasMember(user.ID) {
			result = &MembershipResult{Message: fmt.Sprintf("%s is not a member", user.Username)}
			return nil
		}

		if err := tx.Projects.RemoveMember(project.ID, user.ID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		result = &MembershipResult{Changed: true, Message: fmt.Sprintf("removed %s from the project", user.Username)}
		return recordActivity(tx, actor.ID, fmt.Sprintf("removed member '%s' from project '%s'", user.Username, project.Name), &project.ID, nil)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ProjectService) loadMembershipTarget(tx *repository.Store, actor authz.Actor, projectID, userID uint64) (*models.Project, *models.User, error) {
	project, err := loadProject(tx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.CanManageMembers(actor, project).Err(authz.ResourceMembership, authz.ActionUpdate); err != nil {
		return nil, nil, err
	}
	user, err := findUser(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	return project, user, nil
}

func loadProject(store *repository.Store, id uint64) (*models.Project, error) {
	project, err := store.Projects.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
