// Package bundlegen generates Go source from tagged declarations.
//
// Declarations are tagged with directive comments:
//
//	//bundle:factory type=Shape id=circle   member of the Shape factory group
//	//bundle:service name=Greeter           struct implementing the Greeter service
//	//bundle:export                         method that is part of the service contract
//
// Generation runs in rounds. Round one emits a <Group>Factory dispatcher per
// factory group and an interface contract per service; the next round sees
// the contracts and emits one delegating proxy per service; the round after
// that sees the proxies and emits an activator that registers them with a
// bundle.Context. Generated files carry the contract and proxy tags back so
// every round can find what the previous one produced.
//
// See subpackages:
//   - bundle: runtime types used by generated activators
//   - cmd/bundlegen: the generator command
//   - examples/app: a package set with checked-in generated files
package bundlegen
