package main

import "github.com/yourorg/greenthumb/cmd/greenthumbctl/commands"

func main() {
	commands.Execute()
}
