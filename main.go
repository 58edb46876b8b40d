package main

import "github.com/wdiazux/harvest-sheet/cmd"

func main() {
	cmd.Execute()
}
