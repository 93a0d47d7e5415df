// Package bundle is the small runtime that generated activators run against.
//
// A generated activator implements Activator. Its Start method builds one
// proxy per service and registers it with the Context it receives; Stop
// withdraws the registration again. Registry is an in-memory Context that
// composition roots and tests can use directly.
//
// Import
//
//	"github.com/sghaida/bundlegen/bundle"
package bundle
