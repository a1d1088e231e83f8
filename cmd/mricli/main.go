package main

import "github.com/fyerfyer/mriqueue/cmd/mricli/cmd"

func main() {
	cmd.Execute()
}
