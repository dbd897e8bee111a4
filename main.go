package main

import "github.com/gmaffy/genome-release/cmd"

func main() {
	cmd.Execute()
}
