package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies level and format to the standard logrus logger.
// Unknown levels fall back to info.
func ConfigureLogging(level, format string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
