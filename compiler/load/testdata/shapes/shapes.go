package shapes

import "time"

// Color is an enumeration.
type Color uint8

const (
	Red Color = iota
	Green
	Blue
)

// Point is derived.
//
//arb:derive
type Point struct {
	X, Y  int    `arb:"min=0;max=10"`
	Label string `arb:"regex=[a-z]+"`
	Color Color
	Seen  time.Time
	next  *Point
}

// Shape is a sealed union.
//
//arb:derive
type Shape interface{ isShape() }

// Circle is a variant.
//
//arb:weight 3
type Circle struct{ Radius float64 }

func (Circle) isShape() {}

// Square implements Shape through its pointer.
type Square struct{ Side float64 }

func (*Square) isShape() {}

// Pair is generic.
//
//arb:derive
//arb:nobound B
type Pair[A any, B comparable] struct {
	First  A
	Second B `arb:"skip"`
}

// Tree is a generic union.
//
//arb:derive
type Tree[T any] interface{ isTree() }

type Leaf[T any] struct{ Value T }

func (Leaf[T]) isTree() {}

type Node[T any] struct{ Left, Right Tree[T] }

func (Node[T]) isTree() {}

// Ignored carries no directive.
type Ignored struct{ A int }

// Stray carries a misspelled derive directive.
//
//arb:derve
type Stray struct{ A int }

// Celsius is selected from the command line in tests.
type Celsius float64
