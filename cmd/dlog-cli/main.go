package main

import "github.com/backbone81/durable-log/cmd/dlog-cli/cmd"

func main() {
	cmd.Execute()
}
