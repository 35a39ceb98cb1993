// Package arb holds the runtime helpers called by code generated with arbgen.
//
// Generated generators are plain pgregory.net/rapid generators. This package
// only adds the combinators rapid does not ship with:
//
//   - OneOf picks among weighted alternatives.
//   - Recursive picks among weighted alternatives under a depth budget,
//     favouring base alternatives as the budget runs out.
//   - PtrDepth, SliceDepth and MapDepth build nilable recursive references
//     that collapse to their empty value once the budget is spent.
//   - Complex64, Complex128, Time, Duration and UUID generate well known
//     types that have no reflective rapid generator.
//
// All helpers are stateless; every call to Draw receives fresh randomness.
package arb
