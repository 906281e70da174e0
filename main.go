package main

import "github.com/drivetime/drivetime/cmd"

func main() {
	cmd.Execute()
}
