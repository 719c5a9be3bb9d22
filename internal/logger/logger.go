package logger

import (
	"log/slog"
	"os"
)

var ProgramLevel = new(slog.LevelVar)

// Setup initialiserer global slog med JSON-format. Loggen går til stdout;
// JSONL-resultatene skrives til egen fil, så strømmene blandes ikke.
func Setup(debug bool) {
	ProgramLevel.Set(slog.LevelInfo)
	if debug {
		ProgramLevel.Set(slog.LevelDebug)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     ProgramLevel,
		AddSource: false,
	}))
	slog.SetDefault(logger)
}
