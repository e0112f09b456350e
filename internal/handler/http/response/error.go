package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/correction"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrMissingClaims):
		Unauthorized(w, "Unauthorized")
	case errors.Is(err, user.ErrCompanyIDRequired),
		errors.Is(err, user.ErrEmployeeIDRequired):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Attendance state machine
	case errors.Is(err, attendance.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrOutOfSchedule):
		BusinessRule(w, "OUT_OF_SCHEDULE", err.Error())
	case errors.Is(err, attendance.ErrAbsenceActive):
		BusinessRule(w, "ABSENCE_ACTIVE", err.Error())
	case errors.Is(err, attendance.ErrInvalidEventType),
		errors.Is(err, attendance.ErrModalityRequired),
		errors.Is(err, attendance.ErrInvalidModality),
		errors.Is(err, attendance.ErrModalityNotAllowed),
		errors.Is(err, attendance.ErrBreakDetailsNotAllowed):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Clock event not found")
	case errors.Is(err, attendance.ErrUnauthorized):
		Forbidden(w, err.Error())

	// Employee profile
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrUnauthorized):
		Forbidden(w, "Employee is not active")

	// Corrections
	case errors.Is(err, correction.ErrCorrectionNotFound):
		NotFound(w, "Correction request not found")
	case errors.Is(err, correction.ErrNotEventOwner),
		errors.Is(err, correction.ErrReviewerForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, correction.ErrFutureTimestamp),
		errors.Is(err, correction.ErrSameTimestamp),
		errors.Is(err, correction.ErrReasonRequired),
		errors.Is(err, correction.ErrEventMismatch):
		BusinessRule(w, "INVALID_CORRECTION", err.Error())
	case errors.Is(err, correction.ErrAlreadyResolved):
		Conflict(w, "Correction request already resolved")
	case errors.Is(err, correction.ErrPendingExists):
		Conflict(w, "Correction request changed concurrently, try again")

	// Notifications
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrUnauthorized):
		Forbidden(w, err.Error())

	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
