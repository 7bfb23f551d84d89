// Command kickoff はクラブサイトのAPIサーバーを起動する。
//
//	kickoff [serve|migrate|cleanup|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/kickoff/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kickoff: %v\n", err)
		os.Exit(1)
	}
}
