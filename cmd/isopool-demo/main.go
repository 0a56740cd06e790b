// Command isopool-demo drives the end-to-end scenarios isopool is built
// against, standing up a pool or executor with the exact parameters from
// each scenario and printing the invariant it was meant to hold.
package main

import "github.com/finch-labs/isopool/cmd/isopool-demo/cmd"

func main() {
	cmd.Execute()
}
