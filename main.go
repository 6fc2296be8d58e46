package main

import "github.com/itsmostafa/kvscript/cmd"

func main() {
	cmd.Execute()
}
