// Package logger provides structured logging for adminkit using zerolog.
//
// Loggers are created from Config (level, format, output) and scoped per
// component:
//
//	log := logger.New(&cfg, "adminctl").WithComponent("apiclient")
//	log.Info("request completed", logger.Fields("status", 200))
package logger
