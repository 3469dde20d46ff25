package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TxIDKey carries the id of the enclosing transaction, if any.
	TxIDKey contextKey = "tx_id"
)

// PrettyJSONHandler is a custom handler that pretty prints JSON in development
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	// Convert the record to a map
	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	attrs["time"] = r.Time.Format(time.RFC3339)
	attrs["level"] = r.Level.String()
	attrs["msg"] = r.Message

	prettyJSON, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return err
	}

	_, err = h.writer.Write(append(prettyJSON, '\n'))
	return err
}

// NewPrettyJSONHandler creates a pretty JSON handler writing to w.
func NewPrettyJSONHandler(w io.Writer) *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(w, nil),
		writer:      w,
	}
}

var ProdLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var DevLogger = slog.New(NewPrettyJSONHandler(os.Stdout))

// ForMode returns the logger for a profile log setting: "prod", "dev", or
// "off" (and "") for no logging.
func ForMode(mode string) (*slog.Logger, error) {
	switch mode {
	case "", "off", "none":
		return nil, nil
	case "prod", "json":
		return ProdLogger, nil
	case "dev", "pretty":
		return DevLogger, nil
	}
	return nil, fmt.Errorf("unknown log mode %q", mode)
}

// Query logs one executed statement. Failed statements are logged at error
// level with the driver error. A nil logger logs nothing.
func Query(ctx context.Context, logger *slog.Logger, sql string, args []any, duration time.Duration, err error) {
	if logger == nil {
		return
	}

	attrs := []any{
		"query_id", uuid.NewString(),
		"sql", sql,
		"args", len(args),
		"duration_ms", float64(duration.Nanoseconds()) / 1e6,
	}
	if txID, ok := ctx.Value(TxIDKey).(string); ok {
		attrs = append(attrs, "tx_id", txID)
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		logger.ErrorContext(ctx, "query_failed", attrs...)
		return
	}
	logger.InfoContext(ctx, "query_completed", attrs...)
}

// WithTxID returns ctx tagged with a fresh transaction id and the id itself.
func WithTxID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(ctx, TxIDKey, id), id
}
