package main

import "github.com/petrescueapp/data-collector/cmd"

func main() {
	cmd.Execute()
}
