package logging

import (
	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger. Release builds emit JSON
// for log shipping; everything else stays human readable.
func Setup(ginMode string) {
	if ginMode == "release" {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
}
