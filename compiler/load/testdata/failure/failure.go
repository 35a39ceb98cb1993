package failure

//arb:derive
type User struct {
	Name Missing
}
