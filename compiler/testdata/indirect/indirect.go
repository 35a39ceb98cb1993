package indirect

// Node reaches itself only through the pointer of Link.
//
//arb:derive
type Node interface{ node() }

type Wrap struct {
	Link Link
}

func (Wrap) node() {}

//arb:derive
type Link struct {
	Next *Node
}
