package holder

import "github.com/syssam/arbgen/compiler/testdata/imported/box"

//arb:derive
type Holder struct {
	B box.Box[int]
	P box.Pair[string, bool]
	L box.Limited `arb:"skip"`
}
