package main

import (
	"os"

	"github.com/LestDomzEDU/Project-3-Back-End/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
