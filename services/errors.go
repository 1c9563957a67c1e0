package services

import (
	"net/http"

	"github.com/ndhu-booking/room-booking-server/apperror"
)

var (
	ErrInstitutionalEmail = apperror.BadRequest("must use institutional email")
	ErrNoSlots            = apperror.BadRequest("select at least one slot")
	ErrMissingFields      = apperror.BadRequest("name and purpose are required")
	ErrInvalidDate        = apperror.BadRequest("invalid date, expected YYYY-MM-DD")
	ErrInvalidTime        = apperror.BadRequest("invalid time, expected HH:MM")
	ErrRoomNotFound       = apperror.NotFound("room not found")
	ErrSlotTaken          = apperror.Conflict("time slot already booked")

	ErrApplicationNotFound  = apperror.NotFound("application not found")
	ErrMissingApplicationID = apperror.BadRequest("applicationId is required")
	ErrNoReviewSlots        = apperror.BadRequest("no slots to review")
	ErrInvalidReviewStatus  = apperror.BadRequest("slot status must be confirmed or rejected")
	ErrSlotNotInApplication = apperror.BadRequest("slot does not belong to application")
	ErrDuplicateReviewSlot  = apperror.BadRequest("slot listed more than once")
	ErrInvalidStatusFilter  = apperror.BadRequest("invalid status filter")

	ErrMissingScheduleParams = apperror.BadRequest("date and room are required")

	ErrInvalidRoom     = apperror.BadRequest("roomId and roomName are required and capacity must not be negative")
	ErrDuplicateRoomID = apperror.BadRequest("duplicate roomId in submission")
	ErrRoomInUse       = apperror.Conflict("room in use")
	ErrInvalidAdmin    = apperror.BadRequest("admin requires an institutional email and a name")
	ErrDuplicateEmail  = apperror.BadRequest("duplicate admin email in submission")
	ErrNoActiveAdmin   = apperror.BadRequest("at least one active admin is required")

	ErrInvalidToken    = apperror.Unauthorized("invalid or expired token")
	ErrTokenRevoked    = apperror.Unauthorized("token has been revoked")
	ErrLoginLinkUsed   = apperror.Unauthorized("login link already used")
	ErrCaptcha         = apperror.BadRequest("captcha verification failed")
	ErrNotAdmin        = apperror.Forbidden("not an active admin")
	ErrLoginMailFailed = apperror.New(http.StatusBadGateway, "failed to send login email")

	ErrInvalidExportFormat = apperror.BadRequest("format must be csv or xlsx")
	ErrInvalidExportRange  = apperror.BadRequest("invalid export date range")
	ErrExportNotFound      = apperror.NotFound("export job not found")
)
