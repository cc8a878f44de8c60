package main

import (
	"log"
	"os"

	cli "gitlab.com/gitlab-org/fixturetree/internal/cli/fixturetree"
)

func main() {
	if err := cli.NewApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
