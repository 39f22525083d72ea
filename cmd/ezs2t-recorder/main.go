package main

import (
	"fmt"
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

const version = "0.1.0"

func init() {
	// Audio and hotkey cgo calls need the main OS thread on macOS
	runtime.LockOSThread()
}

func main() {
	var err error
	mainthread.Init(func() {
		err = rootCmd.Execute()
	})

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
