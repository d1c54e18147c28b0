package main

import "github.com/example/rfsched/cmd"

func main() {
	cmd.Execute()
}
