// Command minisearch crawls a bounded neighbourhood of the web, indexes the
// visible words of every page and answers two-term queries over them.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
