// Package authz answers whether an actor may perform an action on a resource.
//
// Object checks are pure functions over loaded models; each resource kind keeps
// its list scope (a GORM scope that narrows a collection to what the actor may
// see) in the same file as its object check. Staff actors are always allowed.
package authz

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrForbidden is wrapped by every DeniedError.
var ErrForbidden = errors.New("permission denied")

// Actor is the authenticated caller.
type Actor struct {
	ID      uint64
	IsStaff bool
}

type Action int

const (
	ActionRead Action = iota
	ActionUpdate
	ActionDelete
	ActionCreate
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "view"
	case ActionUpdate:
		return "modify"
	case ActionDelete:
		return "delete"
	case ActionCreate:
		return "create"
	}
	return "access"
}

// ActionForMethod maps an HTTP verb to the action it performs on an existing object.
func ActionForMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}

type Resource string

const (
	ResourceProject    Resource = "project"
	ResourceMembership Resource = "project membership"
	ResourceTask       Resource = "task"
	ResourceComment    Resource = "comment"
	ResourceAttachment Resource = "attachment"
	ResourceActivity   Resource = "activity log"
)

// Requirement names the precondition an action needed.
type Requirement string

const (
	RequireStaff                Requirement = "staff"
	RequireProjectOwner         Requirement = "project owner"
	RequireProjectOwnerOrMember Requirement = "project owner or a project member"
	RequireProjectParticipant   Requirement = "project owner, a project member, or the assignee"
	RequireTaskCreator          Requirement = "task creator"
	RequireAuthor               Requirement = "author"
	RequireOwnerOrAuthor        Requirement = "project owner or the author"
)

// Decision is the outcome of an object check.
type Decision struct {
	Allowed     bool
	Requirement Requirement
}

func decide(allowed bool, req Requirement) Decision {
	return Decision{Allowed: allowed, Requirement: req}
}

// Err returns nil when allowed, otherwise a *DeniedError for resource.
func (d Decision) Err(resource Resource, action Action) error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Resource: resource, Action: action, Requirement: d.Requirement}
}

// DeniedError reports a failed object check.
type DeniedError struct {
	Resource    Resource
	Action      Action
	Requirement Requirement
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("only the %s can %s this %s", e.Requirement, e.Action, e.Resource)
}

func (e *DeniedError) Unwrap() error {
	return ErrForbidden
}
