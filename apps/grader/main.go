package main

import (
	"fmt"
	"os"
)

func main() {
	cli := newCommandLine(os.Stdout)
	err := cli.run(os.Args)
	cli.close()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
