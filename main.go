package main

import "github.com/olivier-w/enchordify/cmd"

func main() {
	cmd.Execute()
}
