package gcarena

import (
	"log"
	"os"
)

// Collection lifecycle logging, enabled by setting GC_DEBUG in the
// environment. Never used on allocation or tracing hot paths.
var debugEnabled = os.Getenv("GC_DEBUG") != ""

func debugf(format string, args ...any) {
	if debugEnabled {
		log.Printf("gcarena: "+format, args...)
	}
}
