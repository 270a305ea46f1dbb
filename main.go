package main

import (
	"log"

	"github.com/amamiya-dev/file-bed/cmd"
	"github.com/amamiya-dev/file-bed/config"
)

func main() {
	log.Printf("file bed %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
