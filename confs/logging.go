package confs

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogging configures the standard logger. With a log file set, output
// also goes to a size-rotated file. The returned func closes that file.
func SetupLogging(cfg *Config) func() error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return func() error { return nil }
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator.Close
}
