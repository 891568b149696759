package main

import "github.com/runvnc/mindroot-tui/cmd"

func main() {
	cmd.Execute()
}
