package main

import "github.com/swapfeed/swapfeed/cmd"

func main() {
	cmd.Execute()
}
