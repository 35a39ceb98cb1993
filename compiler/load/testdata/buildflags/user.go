package buildflags

//arb:derive
type User struct {
	Name  string
	Admin bool
}
