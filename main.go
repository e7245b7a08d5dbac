package main

import "github.com/mselser95/crossmkt-arb/cmd"

func main() {
	cmd.Execute()
}
