package main

import "github.com/bryanchriswhite/EyeFocus/cmd/eyefocus/commands"

func main() {
	commands.Execute()
}
