package main

import (
	"os"

	"github.com/wrensat/wren/cmd/root"
)

func main() {
	os.Exit(root.Execute())
}
