package main

import "mangaalert/cmd/cli/command"

func main() {
	command.Execute()
}
