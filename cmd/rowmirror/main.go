package main

import "github.com/rowmirror/rowmirror/internal/cli"

func main() {
	cli.Execute()
}
