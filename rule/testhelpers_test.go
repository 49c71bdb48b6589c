package rule

import (
	"io"
	"log/slog"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustOutcome(raw any) Outcome {
	out, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return out
}
