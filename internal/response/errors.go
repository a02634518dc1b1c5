package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrLearnerOnly     ErrCode = "LEARNER_ACCESS_ONLY"
	ErrAdminOnly       ErrCode = "ADMIN_ACCESS_ONLY"
	ErrUpgradeRequired ErrCode = "UPGRADE_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrContentLoad       ErrCode = "CONTENT_LOAD_FAILED"
	ErrExamNotPublished  ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotDraft      ErrCode = "EXAM_NOT_DRAFT"
	ErrNotExamAuthor     ErrCode = "NOT_EXAM_AUTHOR"
	ErrPaperStructure    ErrCode = "PAPER_STRUCTURE_INVALID"
	ErrNoActiveSession   ErrCode = "NO_ACTIVE_SESSION"
	ErrIllegalTransition ErrCode = "ILLEGAL_TRANSITION"
	ErrAnswerOutOfRange  ErrCode = "ANSWER_OUT_OF_RANGE"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrLearnerOnly:
		return "This resource is restricted to learners."
	case ErrAdminOnly:
		return "This resource is restricted to administrators."
	case ErrUpgradeRequired:
		return "This exam is available on the premium plan. Upgrade to take it."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."

	// ─── Exam session ──────────────────────────────────────────────────
	case ErrContentLoad:
		return "Failed to load exam content. Please try again."
	case ErrExamNotPublished:
		return "This exam has not been published."
	case ErrExamNotDraft:
		return "This exam is not in DRAFT status."
	case ErrNotExamAuthor:
		return "You are not the author of this exam."
	case ErrPaperStructure:
		return "The exam paper structure is invalid."
	case ErrNoActiveSession:
		return "There is no active exam session."
	case ErrIllegalTransition:
		return "This action is not allowed in the current session state."
	case ErrAnswerOutOfRange:
		return "The selected option is out of range."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "The file type is not supported."
	case ErrFileTooLarge:
		return "The file size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
