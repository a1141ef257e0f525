package main

import "github.com/accessguard/accessguard-agent/pkg/cli"

func main() {
	cli.Execute()
}
