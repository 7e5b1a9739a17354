package tools

import (
	"fmt"
	"os"
	"time"
)

var isEnabled = true
var printTimestamp = false

func EnableLogger() {
	isEnabled = true
}

func DisableLogger() {
	isEnabled = false
}

func EnableLoggerTimestamp() {
	printTimestamp = true
}

func DisableLoggerTimestamp() {
	printTimestamp = false
}

// Prints a progress line for the CLI user. Library code logs with glog instead.
func LogOutput(val ...interface{}) {
	if !isEnabled {
		return
	}
	if printTimestamp {
		fmt.Fprint(os.Stdout, "["+time.Now().Format("2006-01-02 15.04:05.000")+"] ")
	}
	fmt.Fprintln(os.Stdout, val...)
}
