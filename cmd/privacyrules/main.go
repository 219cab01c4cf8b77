package main

import (
	"fmt"
	"os"
)

const (
	appName = "privacy_rules"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
