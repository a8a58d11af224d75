package main

import (
	"example.com/stayhub/services/reservation/cmd"
)

func main() {
	cmd.Execute()
}
