// Package logger provides a structured logging interface for the decensor
// tool.
//
// It wraps the zerolog library to provide a clean API with support for:
// - Multiple log levels (Debug, Info, Warn, Error)
// - Structured logging with fields
// - Pretty console output on stderr
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "decensor/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	log := logger.GetLogger()
//	log.WithField("batch", "191").Info("batch stored")
//	log.WithError(err).Error("sync failed")
package logger
