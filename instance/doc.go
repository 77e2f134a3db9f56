// Package instance pairs loaded modules with their sandbox execution
// contexts and tracks them in the ordered, optionally named registry the
// script environment resolves against.
//
// Names are not unique: lookup returns the first entry whose stored name
// matches, and the empty name always resolves to the most recently
// appended entry, mirroring reference-interpreter semantics.
package instance
