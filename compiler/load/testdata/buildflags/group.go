//go:build !hidegroups

package buildflags

//arb:derive
type Group struct {
	Name    string
	Members []User `arb:"max=8"`
}
