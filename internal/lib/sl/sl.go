package sl

import (
	"log/slog"
)

// Err wraps an error into a slog attribute.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Module tags log records with the emitting component.
func Module(name string) slog.Attr {
	return slog.String("module", name)
}

// Secret logs a credential in truncated form.
func Secret(key, value string) slog.Attr {
	if len(value) > 8 {
		value = value[:4] + "..." + value[len(value)-2:]
	}
	return slog.String(key, value)
}
