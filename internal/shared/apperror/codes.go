package apperror

const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeInvalidState = "INVALID_STATE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"

	CodeInternalError = "INTERNAL_ERROR"
	CodePersistence   = "PERSISTENCE_ERROR"
)

// Kind is the failure class a caller branches on. Several codes can share
// one kind: a bad amount and an illegal transition are both validation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindPersistence
	KindAccess
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	case KindAccess:
		return "access"
	default:
		return "internal"
	}
}

func kindOfCode(code string) Kind {
	switch code {
	case CodeInvalidInput, CodeInvalidState:
		return KindValidation
	case CodeConflict:
		return KindConflict
	case CodeNotFound:
		return KindNotFound
	case CodePersistence:
		return KindPersistence
	case CodeUnauthorized, CodeForbidden:
		return KindAccess
	default:
		return KindInternal
	}
}
