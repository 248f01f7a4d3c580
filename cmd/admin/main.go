package main

import (
	"context"
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  admin circuits import [-db path] <file>...
  admin circuits list   [-db path]
  admin circuits show   [-db path] <name>
  admin circuits delete [-db path] <name>
  admin state     [-url http://127.0.0.1:8080]
  admin bootstrap [-url http://127.0.0.1:8080]`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "circuits":
		err = circuitsCmd(context.Background(), os.Args[2:], os.Stdout)
	case "state":
		err = getCmd("state", "/admin/v1/state", os.Args[2:], os.Stdout)
	case "bootstrap":
		err = getCmd("bootstrap", "/admin/v1/observer/bootstrap", os.Args[2:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		if _, ok := err.(usageError); ok {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }
