package main

import "github.com/lepinkainen/shelfsync/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
