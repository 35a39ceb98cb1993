// Package gen derives pgregory.net/rapid generators for Go type declarations.
//
// It turns the declarations selected by the loader into a graph of derived
// types, decides how every field is generated and renders one generated
// file per package.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	load.Package (declarations, fields, directives)
//	        ↓
//	   NewType: directives and shape of every declaration
//	        ↓
//	   Graph: usages, recursion, generator bounds, strategies
//	        ↓
//	   Emit (jennifer)
//	        ↓
//	   Writer (goimports, disk)
//
// # Key Types
//
//   - Graph: the derived types of one package
//   - Type: a record (struct) or a union (sealed interface)
//   - Field: a struct field with its directives
//   - Variant: a struct implementing a union
//   - TypeParam: a type parameter, with the generator and comparable flags
//   - Strategy: the generator expression tree of a type or field
//   - Config: global configuration for code generation
//
// # Directives
//
// Declarations opt in with a doc comment directive, fields are tuned with
// struct tags:
//
//	//arb:derive
//	//arb:depth 5
//	type Expr interface{ isExpr() }
//
//	//arb:weight 3
//	type Lit struct {
//		Value int    `arb:"min=-100;max=100"`
//		Name  string `arb:"regex=[a-z]+"`
//		Cache []byte `arb:"skip"`
//	}
//
// Type level directives are derive, weight, depth, nobound and variants.
// Field level directives are skip, value, gen, filter, regex, min, max and
// depth. Conflicting or unknown directives are reported as a DirectiveError.
//
// # Error Handling
//
// The package uses structured error types for better error handling:
//
//   - ShapeError: declarations that cannot be derived
//   - DirectiveError: malformed or conflicting directives
//   - BoundError: type parameters that cannot satisfy their bounds
//   - RecursionError: recursive unions without a base case
//   - FieldError: fields with no generator
//   - ConfigError: configuration errors
//   - GenerationError: rendering and writing errors
//
// Errors of independent declarations are joined:
//
//	graph, err := gen.NewGraph(config, pkg)
//	if err != nil {
//	    if gen.IsRecursionError(err) {
//	        // Add a base variant.
//	    }
//	    return err
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	config, err := gen.NewConfig(
//	    gen.WithDepth(5),
//	    gen.WithFeatures(gen.FeatureSlices),
//	)
//
// # Generated Output
//
// Every package with derived types receives one file, arbitrary_gen.go by
// default, holding for each type T:
//
//	func ArbitraryT() *rapid.Generator[T]
//
// Generic types take one generator argument per type parameter that needs
// one, recursive types get a depth bounded helper and unions one helper per
// variant.
//
// # Features
//
// The generator supports optional features that can be enabled:
//
//   - slices: a generator of slices of every derived type
//   - draw: a DrawT(t, label) helper for every non generic type
package gen
