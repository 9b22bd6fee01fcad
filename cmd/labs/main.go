package main

import "github.com/metric-duck/labs/pkg/cli"

func main() {
	cli.Execute()
}
