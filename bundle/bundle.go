package bundle

import (
	"errors"
	"strconv"
)

var (
	// ErrEmptyName is returned when a service is registered without a name.
	ErrEmptyName = errors.New("bundle: empty service name")

	// ErrNilService is returned when a nil service is registered.
	ErrNilService = errors.New("bundle: nil service")

	// ErrNotRegistered is returned when a registration is withdrawn twice.
	ErrNotRegistered = errors.New("bundle: service not registered")

	// ErrRegistryPanic is returned if a lookup panics internally.
	ErrRegistryPanic = errors.New("bundle: panic during Resolve")
)

// Properties carries optional metadata attached to a registration.
type Properties map[string]any

// Context is handed to activators. Services registered through it stay
// visible until their Registration is withdrawn.
type Context interface {
	RegisterService(name string, svc any, props Properties) (Registration, error)
}

// Registration is the handle returned by RegisterService.
type Registration interface {
	Unregister() error
}

// Activator starts and stops the services of one package.
type Activator interface {
	Start(ctx Context) error
	Stop(ctx Context) error
}

// MissingServiceError is returned by MustGet's panic when name is unknown.
type MissingServiceError struct{ Name string }

// Error implements the error interface.
func (e MissingServiceError) Error() string {
	// Example: bundle: service "example.com/app.Person" missing
	return "bundle: service " + strconv.Quote(e.Name) + " missing"
}
