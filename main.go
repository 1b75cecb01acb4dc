package main

import (
	"github.com/AzielCF/az-bot/cmd"
)

func main() {
	cmd.Execute()
}
