// Package logging configures the structured diagnostic log used by apireg.
//
// It wraps log/slog. Remote-call failures, cancelled requests and other
// conditions that the console does not surface to the user end up here.
//
//	logger, closer, err := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	    File:   "apireg.log",
//	})
//	defer closer.Close()
//
//	logger.Warn("delete failed", "id", 7, "error", err)
//
// Components accept a *slog.Logger in their constructor or via an option.
// If none is provided they use logging.Nop().
package logging
