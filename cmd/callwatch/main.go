package main

import "github.com/callwatch/callwatch/internal/cli"

func main() {
	cli.Execute()
}
