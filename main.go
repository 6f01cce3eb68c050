package main

import "github.com/timvw/tmux-mem/cmd"

func main() {
	cmd.Execute()
}
