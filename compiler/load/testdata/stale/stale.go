package stale

//arb:derive
type Item struct {
	Name string
}
