package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// GenericMessage is shown when no server message is available
const GenericMessage = "Something went wrong. Please try again."

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a non-2xx API response
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Messages holds every string found in the error body, in document order
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, "\n")
	}
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Path, e.StatusCode)
}

// Is lets callers match on status classes with errors.Is
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Contains reports whether any server message contains substr, case-insensitively
func (e *Error) Contains(substr string) bool {
	substr = strings.ToLower(substr)
	for _, m := range e.Messages {
		if strings.Contains(strings.ToLower(m), substr) {
			return true
		}
	}
	return false
}

// DisplayMessage converts any error into a user-facing string: the server's
// field-error values joined by newlines, or fallback
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return strings.Join(apiErr.Messages, "\n")
	}
	if fallback == "" {
		return GenericMessage
	}
	return fallback
}

// flattenMessages walks a JSON error payload depth-first and collects every
// scalar value. Object keys keep their document order. A body that is not
// JSON yields nothing.
func flattenMessages(body []byte) []string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var out []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out
		}
		switch v := tok.(type) {
		case json.Delim:
			if v == '{' {
				if !collectObject(dec, &out) {
					return out
				}
			}
		case string:
			if v != "" {
				out = append(out, v)
			}
		case json.Number:
			out = append(out, v.String())
		case bool:
			out = append(out, strconv.FormatBool(v))
		}
	}
	return out
}

// collectObject consumes an object whose opening brace was already read,
// skipping keys and collecting values
func collectObject(dec *json.Decoder, out *[]string) bool {
	for dec.More() {
		// key
		if _, err := dec.Token(); err != nil {
			return false
		}
		if !collectValue(dec, out) {
			return false
		}
	}
	_, err := dec.Token() // closing brace
	return err == nil
}

func collectValue(dec *json.Decoder, out *[]string) bool {
	tok, err := dec.Token()
	if err != nil {
		return false
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return collectObject(dec, out)
		case '[':
			for dec.More() {
				if !collectValue(dec, out) {
					return false
				}
			}
			_, err := dec.Token()
			return err == nil
		}
	case string:
		if v != "" {
			*out = append(*out, v)
		}
	case json.Number:
		*out = append(*out, v.String())
	case bool:
		*out = append(*out, strconv.FormatBool(v))
	}
	return true
}
