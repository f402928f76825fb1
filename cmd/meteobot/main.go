package main

import (
	_ "time/tzdata"

	"meteobot.app/internal/cli"
)

func main() {
	cli.Execute()
}
