package main

import "github.com/vjeantet/ldapderef/cmd/ldapderef/cmd"

func main() {
	cmd.Execute()
}
