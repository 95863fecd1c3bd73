package main

import (
	"os"

	"github.com/tenantgate/tenantgate/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
