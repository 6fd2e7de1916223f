package domain

type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultValidationError
	ResultNotFound
	ResultForbidden
	ResultConflict
	ResultInternalError
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultValidationError:
		return "validation_error"
	case ResultNotFound:
		return "not_found"
	case ResultForbidden:
		return "forbidden"
	case ResultConflict:
		return "conflict"
	case ResultInternalError:
		return "internal_error"
	}
	return "unknown"
}

// Result is the outcome of one user action. A redirect is a successful
// result with Redirect set, never an error.
type Result struct {
	Kind     ResultKind
	Redirect string
	Message  string
	Data     interface{}
	// Form echoes submitted input back on validation failures.
	Form map[string]string
	// Err is for logs only and is never shown to the user.
	Err error
}

func Success(data interface{}) Result {
	return Result{Kind: ResultSuccess, Data: data}
}

func SuccessMessage(message string, data interface{}) Result {
	return Result{Kind: ResultSuccess, Message: message, Data: data}
}

func Redirect(location string) Result {
	return Result{Kind: ResultSuccess, Redirect: location}
}

func ValidationFailed(message string, form map[string]string) Result {
	return Result{Kind: ResultValidationError, Message: message, Form: form}
}

func NotFound(message string) Result {
	return Result{Kind: ResultNotFound, Message: message}
}

func Forbidden(message string) Result {
	return Result{Kind: ResultForbidden, Message: message}
}

func Conflict(message string) Result {
	return Result{Kind: ResultConflict, Message: message}
}

func Internal(err error) Result {
	return Result{Kind: ResultInternalError, Message: "Something went wrong, please try again", Err: err}
}

func (r Result) IsRedirect() bool {
	return r.Kind == ResultSuccess && r.Redirect != ""
}
