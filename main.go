package main

import "wenum/cmd"

func main() {
	cmd.Execute()
}
