package supermod

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode/utf8"
)

const loggerContextKey contextKey = "logger"

type contextKey string

// PostSplit breaks a long message into chunks of at most limit characters,
// preferring to split at the last newline before the limit and falling back
// to the last sentence-ending punctuation mark. The character at the split
// point is dropped from the following chunk.
func PostSplit(text string, limit int) []string {
	var posts []string
	runes := []rune(text)
	for len(runes) > limit {
		split := -1
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				split = i
				break
			}
		}
		if split == -1 {
			split = 1
			for i := limit - 1; i > 0; i-- {
				if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
					split = i + 1
					break
				}
			}
		}
		posts = append(posts, string(runes[:split]))
		runes = runes[split+1:]
	}
	return append(posts, string(runes))
}

// digitsOnly returns only the numeric characters of s, in order.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseIndexTokens splits a comma-separated reply such as "2, 4" into the
// index keys used by the pending-submission listing. Non-numeric characters
// inside a token are ignored, so "2a" resolves to "2". A token with no
// digits at all yields an error naming the offending token.
func parseIndexTokens(s string) ([]string, error) {
	tokens := strings.Split(s, ",")
	indices := make([]string, 0, len(tokens))
	for _, token := range tokens {
		ind := digitsOnly(token)
		if ind == "" {
			return nil, fmt.Errorf("no entry number in %q", strings.TrimSpace(token))
		}
		indices = append(indices, ind)
	}
	return indices, nil
}

// jumpURL builds the message link Discord clients render as a clickable jump.
func jumpURL(guildID, channelID, messageID string) string {
	return fmt.Sprintf(
		"https://discord.com/channels/%s/%s/%s",
		guildID,
		channelID,
		messageID,
	)
}

// truncate shortens the input string to a specified number of characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// structToSlogValue converts a struct to a slog.Value, using the struct's
// JSON tag as the key for each field, if set.
// If the `log` tag is set, the value specified will override the
// field's actual value. Ex: `log:"REDACTED"` will cause "REDACTED" to
// be shown as the field's value.
func structToSlogValue(v any) slog.Value {
	typ := reflect.TypeOf(v)
	if typ == nil {
		return slog.AnyValue(nil)
	}
	val := reflect.ValueOf(v)

	if typ.Kind() == reflect.Ptr {
		if val.IsNil() {
			return slog.AnyValue(nil)
		}
		val = val.Elem()
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return slog.AnyValue(v)
	}

	var groupAttrs []slog.Attr

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		jsonTag, _, _ := strings.Cut(field.Tag.Get("json"), ",")

		if jsonTag == "" {
			jsonTag = field.Name
		}

		fv := val.Field(i)
		if !fv.CanInterface() {
			continue
		}

		logTag := field.Tag.Get("log")
		if logTag != "" {
			groupAttrs = append(
				groupAttrs,
				slog.Attr{Key: jsonTag, Value: slog.StringValue(logTag)},
			)
			continue
		}

		// skip struct values that are nil or empty
		skip := false
		switch fv.Kind() {
		case reflect.Ptr:
			if fv.IsNil() {
				skip = true
			}
		case reflect.Map, reflect.Slice:
			if fv.IsNil() || fv.Len() == 0 {
				skip = true
			}
		case reflect.String:
			if fv.String() == "" {
				skip = true
			}
		}

		if skip {
			continue
		}

		fieldValue := fv.Interface()
		groupAttrs = append(
			groupAttrs,
			slog.Attr{Key: jsonTag, Value: structToSlogValue(fieldValue)},
		)
	}

	return slog.GroupValue(groupAttrs...)
}

// WithLogger returns a new context with the given logger added.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	var ctxLogger *slog.Logger
	if logger == nil {
		ctxLogger = slog.Default()
	} else {
		ctxLogger = logger
	}
	return context.WithValue(ctx, loggerContextKey, ctxLogger)
}

// ContextLogger returns a logger from the given context if one
// is present, and a boolean indicating whether a logger was found.
func ContextLogger(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger, ok
}

func stringPointerValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
