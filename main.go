package main

import "photovault/cmd"

func main() {
	cmd.Execute()
}
