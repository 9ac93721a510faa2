// Package source defines the raw, front-end independent view of an annotated
// instruction enum: the enum, its cases, their payload fields and the
// annotations attached to each of them.
//
// Front-ends (internal/rustsrc for Rust, internal/cuesrc for CUE) produce
// these values; internal/compiler consumes them. Annotations keep their
// argument tokens verbatim and are parsed on demand with Annotation.Meta,
// so an annotation that nothing inspects can never fail a build.
package source
