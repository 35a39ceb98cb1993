package geometry

//arb:derive
type Point struct {
	X, Y int `arb:"min=-100;max=100"`
}

//arb:derive
type Shape interface{ area() float64 }

type Circle struct {
	Center Point
	Radius float64 `arb:"min=0;max=10"`
}

func (c Circle) area() float64 { return 3 * c.Radius * c.Radius }

//arb:weight 2
type Polygon struct {
	Points []Point `arb:"min=3;max=6"`
}

func (*Polygon) area() float64 { return 0 }
