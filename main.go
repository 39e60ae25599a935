package main

import (
	"github.com/saveblush/reraw-info/cmd"
)

// version is set at build time: -ldflags "-X main.version=v1.0.0"
var version string

func main() {
	cmd.Execute(version)
}
