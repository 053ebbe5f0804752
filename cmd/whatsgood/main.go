package main

import (
	"whatsgood/internal/cmd"
)

func main() {
	cmd.Run()
}
