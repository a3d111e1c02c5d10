package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/metrics"
	"github.com/yukikurage/project-tracker-api/internal/services"
)

func init() {
	// report json names, not Go field names, in validation details
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

var notFoundErrors = []error{
	services.ErrUserNotFound,
	services.ErrProjectNotFound,
	services.ErrTaskNotFound,
	services.ErrCommentNotFound,
	services.ErrAttachmentNotFound,
	services.ErrNotificationNotFound,
}

var businessRuleErrors = []error{
	services.ErrCannotRemoveOwner,
	services.ErrPasswordAlreadySet,
	services.ErrResetTokenUsed,
	services.ErrResetTokenExpired,
	services.ErrFederatedAccount,
}

var upstreamErrors = []error{
	services.ErrGoogleKeysUnavailable,
	services.ErrGoogleNotConfigured,
	services.ErrMailDeliveryFailed,
	services.ErrFileStorageUnavailable,
}

// respondError maps a service error onto the API error envelope.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		apierrors.BadRequestWithDetails(c, "Invalid input", validationErr.Fields)
		return
	}

	var denied *authz.DeniedError
	if errors.As(err, &denied) {
		metrics.RecordDenial(string(denied.Resource))
		apierrors.Forbidden(c, denied.Error())
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			apierrors.NotFound(c, target.Error())
			return
		}
	}
	for _, target := range businessRuleErrors {
		if errors.Is(err, target) {
			apierrors.InvalidOperation(c, target.Error())
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, services.ErrInvalidCredentials.Error())
		return
	case errors.Is(err, services.ErrInvalidAuthToken):
		apierrors.Unauthorized(c, services.ErrInvalidAuthToken.Error())
		return
	case errors.Is(err, services.ErrGoogleTokenInvalid):
		apierrors.InvalidToken(c, services.ErrGoogleTokenInvalid.Error())
		return
	case errors.Is(err, services.ErrGoogleEmailUnverified):
		apierrors.InvalidToken(c, services.ErrGoogleEmailUnverified.Error())
		return
	}

	for _, target := range upstreamErrors {
		if errors.Is(err, target) {
			log.WithError(err).WithField("path", c.FullPath()).Error("Upstream dependency failed")
			apierrors.ServiceUnavailable(c, target.Error())
			return
		}
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error")
	apierrors.InternalError(c, "")
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fieldMessage(fe)
		}
		apierrors.BadRequestWithDetails(c, "Invalid input", details)
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		apierrors.BadRequestWithDetails(c, "Invalid input", map[string]string{
			typeErr.Field: fmt.Sprintf("expected %s", typeErr.Type.String()),
		})
		return
	}

	apierrors.BadRequest(c, "Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return fmt.Sprintf("failed the %q check", fe.Tag())
}
