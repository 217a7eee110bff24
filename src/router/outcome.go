package router

// Kind tags the result of one invocation.
type Kind int

const (
	KindSuccess Kind = iota
	KindUnknownCommand
	KindUnsupportedOperation
	KindResolutionFailure
	KindInvocationFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUnknownCommand:
		return "unknown_command"
	case KindUnsupportedOperation:
		return "unsupported_operation"
	case KindResolutionFailure:
		return "resolution_failure"
	case KindInvocationFailure:
		return "invocation_failure"
	default:
		return "unknown"
	}
}

// Outcome is the uniform result of an invocation. Value is only meaningful
// for KindSuccess and Cause only for the two failure kinds.
type Outcome struct {
	Kind      Kind
	Command   string
	Operation string
	Value     int64
	Cause     error
}

// Failed reports whether the outcome is an infrastructure or backend failure.
func (o Outcome) Failed() bool {
	return o.Kind == KindResolutionFailure || o.Kind == KindInvocationFailure
}

func Success(command, operation string, value int64) Outcome {
	return Outcome{Kind: KindSuccess, Command: command, Operation: operation, Value: value}
}

func UnknownCommand(command, operation string) Outcome {
	return Outcome{Kind: KindUnknownCommand, Command: command, Operation: operation}
}

func UnsupportedOperation(command, operation string) Outcome {
	return Outcome{Kind: KindUnsupportedOperation, Command: command, Operation: operation}
}

func ResolutionFailure(command, operation string, cause error) Outcome {
	return Outcome{Kind: KindResolutionFailure, Command: command, Operation: operation, Cause: cause}
}

func InvocationFailure(command, operation string, cause error) Outcome {
	return Outcome{Kind: KindInvocationFailure, Command: command, Operation: operation, Cause: cause}
}
