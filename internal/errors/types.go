// Package errors provides the structured error taxonomy for the wiredom
// resolution pipeline: configuration errors, not-found errors with nearest
// name suggestions, contract violations, and execution-halt conversion.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeConfig marks wiring mistakes in the calling application:
	// missing registry, missing injector, invalid setup objects. Never
	// recoverable, never retried.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeNotFound marks a failed name lookup. Fatal for that lookup,
	// recoverable by the caller trying a different name.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeContract marks structural contract violations at
	// registration time (programmer error).
	ErrorTypeContract ErrorType = "contract"
	// ErrorTypeExecution marks middleware chain failures surfaced at the
	// lookup boundary, including halt-as-error conversion.
	ErrorTypeExecution ErrorType = "execution"
	// ErrorTypeInternal marks everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// WireError is a structured error type with context.
type WireError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Component   string
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *WireError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *WireError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *WireError) Is(target error) bool {
	var t *WireError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error.
func (e *WireError) WithContext(key string, value interface{}) *WireError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithComponent adds component context.
func (e *WireError) WithComponent(component string) *WireError {
	e.Component = component
	return e
}

// Error codes used throughout the resolution pipeline.
const (
	CodeRegistryNotSetup   = "REGISTRY_NOT_SETUP"
	CodeComponentNotFound  = "COMPONENT_NOT_FOUND"
	CodeInjectorNotFound   = "INJECTOR_NOT_FOUND"
	CodeInvalidMiddleware  = "INVALID_MIDDLEWARE"
	CodeInvalidContainer   = "INVALID_CONTAINER"
	CodeInvalidSetup       = "INVALID_SETUP"
	CodeExecutionHalted    = "EXECUTION_HALTED"
	CodeAsyncInSyncChain   = "ASYNC_IN_SYNC_CHAIN"
	CodeServiceUnresolved  = "SERVICE_UNRESOLVED"
	CodeRenderFailed       = "RENDER_FAILED"
)

// NewRegistryNotSetup creates the configuration error for a container that
// was never configured with a component name registry.
func NewRegistryNotSetup() *WireError {
	return &WireError{
		Type: ErrorTypeConfig,
		Code: CodeRegistryNotSetup,
		Message: "component name registry is not set up; " +
			"register a *registry.ComponentNameRegistry with the container " +
			"(wiredom.Setup does this) before calling Lookup",
	}
}

// NewComponentNotFound creates a not-found error for the attempted name,
// embedding up to five nearest-name suggestions. registered is the total
// number of names in the registry: the empty-registry hint is reserved for
// registered == 0, since a populated registry can also yield no suggestions
// when nothing is within edit distance.
func NewComponentNotFound(name string, suggestions []string, registered int) *WireError {
	msg := fmt.Sprintf("component %q is not registered", name)
	if len(suggestions) > 0 {
		msg += "; did you mean " + quoteJoin(suggestions) + "?"
	} else if registered == 0 {
		msg += "; no components are registered - did you forget to register any?"
	}

	e := &WireError{
		Type:        ErrorTypeNotFound,
		Code:        CodeComponentNotFound,
		Message:     msg,
		Component:   name,
		Recoverable: true,
	}
	if len(suggestions) > 0 {
		e = e.WithContext("suggestions", suggestions)
	}
	return e
}

// NewInjectorNotFound creates the configuration error for a missing injector
// collaborator. The async flag selects which injector the message names.
func NewInjectorNotFound(async bool) *WireError {
	variant := "sync"
	hint := "register an injector.Injector"
	if async {
		variant = "async"
		hint = "register an injector.AsyncInjector"
	}
	return &WireError{
		Type:    ErrorTypeConfig,
		Code:    CodeInjectorNotFound,
		Message: fmt.Sprintf("no %s injector is registered with the container; %s before looking up %s components", variant, hint, variant),
	}
}

// NewContractViolation creates a contract-violation error (programmer error
// at registration time).
func NewContractViolation(code, message string) *WireError {
	return &WireError{
		Type:    ErrorTypeContract,
		Code:    code,
		Message: message,
	}
}

// NewExecutionHalted converts a middleware halt into a raised error. This
// conversion happens only at the lookup boundary, where there is no caller
// positioned to interpret a nil component.
func NewExecutionHalted(scope, component string) *WireError {
	return &WireError{
		Type:      ErrorTypeExecution,
		Code:      CodeExecutionHalted,
		Message:   fmt.Sprintf("%s middleware halted resolution", scope),
		Component: component,
	}
}

// NewAsyncInSyncChain creates the fatal mismatch error for async middleware
// reached from the synchronous execution entry point.
func NewAsyncInSyncChain(middleware string) *WireError {
	return &WireError{
		Type:    ErrorTypeContract,
		Code:    CodeAsyncInSyncChain,
		Message: fmt.Sprintf("middleware %s is async; use ExecuteAsync instead of Execute", middleware),
	}
}

// NewServiceUnresolved creates the runtime error for a registered service
// middleware type that could not be resolved from its container.
func NewServiceUnresolved(typeName string, cause error) *WireError {
	return &WireError{
		Type:    ErrorTypeExecution,
		Code:    CodeServiceUnresolved,
		Message: fmt.Sprintf("failed to resolve middleware service %s from its container", typeName),
		Cause:   cause,
	}
}

// NewRenderFailed wraps a templating engine failure surfaced while rendering
// a resolved component.
func NewRenderFailed(cause error) *WireError {
	return &WireError{
		Type:    ErrorTypeExecution,
		Code:    CodeRenderFailed,
		Message: "render failed",
		Cause:   cause,
	}
}

// NewInvalidSetup creates the configuration error for invalid objects passed
// to setup.
func NewInvalidSetup(message string) *WireError {
	return &WireError{
		Type:    ErrorTypeConfig,
		Code:    CodeInvalidSetup,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *WireError {
	return &WireError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var we *WireError
	if errors.As(err, &we) {
		return we.Recoverable
	}
	return false
}

// IsNotFound checks if an error is a component not-found error.
func IsNotFound(err error) bool {
	var we *WireError
	if errors.As(err, &we) {
		return we.Type == ErrorTypeNotFound
	}
	return false
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool {
	var we *WireError
	if errors.As(err, &we) {
		return we.Type == ErrorTypeConfig
	}
	return false
}
