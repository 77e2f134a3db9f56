// Package pipeline turns raw module bytes into a live, registered
// instance: deserialize, program construction, compile, codegen into a
// scoped temporary directory, external link, load, sandbox instantiate.
//
// Each stage maps its failure to exactly one taxonomy kind at the boundary
// where it occurs, and the temporary directory is removed on every exit
// path, success or failure.
package pipeline
