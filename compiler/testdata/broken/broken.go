package broken

//arb:derive
type Loop interface{ loop() }

type Wrap struct{ Inner Loop }

func (Wrap) loop() {}

//arb:derive
type Fine struct{ N int }
