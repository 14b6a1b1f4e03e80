package status

// ErrorCode is a numeric code to classify API errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   1000-1999: Chat & uploads
//   2000-2999: Assistant pipeline
//   3000-3999: Auth

const (
	BadRequestBase    ErrorCode = 0
	InternalErrorBase ErrorCode = 1000
)

// Chat client/validation errors start at 0
const (
	ChatInvalidRequestBody ErrorCode = BadRequestBase + iota // 0
	ChatMissingParams                                        // 1
	ChatImageTooLarge                                        // 2
	ChatUnsupportedImage                                     // 3
)

// Chat internal errors start at 1000
const (
	ChatInternal            ErrorCode = InternalErrorBase + iota // 1000
	ChatStoreImageFailed                                         // 1001
	ChatPersistTurnFailed                                        // 1002
)

// Assistant pipeline errors (2000-2999)
const (
	AssistantInternal       ErrorCode = 2000 + iota // 2000
	AssistantPipelineFailed                         // 2001
)

// Auth errors (3000-3999)
const (
	AuthInvalidCredentials ErrorCode = 3000 + iota // 3000
	AuthUserExists                                 // 3001
	AuthUnauthorized                               // 3002
)

const (
	ResourceNotFound  ErrorCode = 4004
	ErrorCodeInternal ErrorCode = 9000
)

// CodedError represents an error with an associated ErrorCode
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

type codedError struct {
	code ErrorCode
	err  error
}

func (e codedError) Error() string        { return e.err.Error() }
func (e codedError) Unwrap() error        { return e.err }
func (e codedError) ErrorCode() ErrorCode { return e.code }

// New creates a new CodedError with the given code and underlying error
func New(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return codedError{code: code, err: err}
}
