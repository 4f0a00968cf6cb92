package main

import "distancemeter/internal/cli"

func main() {
	cli.Execute()
}
