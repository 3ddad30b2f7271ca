package main

import (
	"ShelfFM/cmd"
)

func main() {
	cmd.Execute()
}
