package generation

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// eventReader splits a text/event-stream body into event payloads: data
// lines are joined with "\n" and an event ends at a blank line. Comment
// lines and fields other than data are skipped.
type eventReader struct {
	r *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the payload of the next event carrying data. A payload left
// pending when the body ends is still returned; io.EOF follows it.
func (e *eventReader) Next() ([]byte, error) {
	var (
		buf     bytes.Buffer
		hasData bool
	)
	for {
		line, err := e.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			if line != "" {
				appendField(strings.TrimRight(line, "\r\n"), &buf, &hasData)
			}
			if hasData {
				return buf.Bytes(), nil
			}
			return nil, io.EOF
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				return buf.Bytes(), nil
			}
			continue
		}
		appendField(line, &buf, &hasData)
	}
}

func appendField(line string, buf *bytes.Buffer, hasData *bool) {
	if strings.HasPrefix(line, ":") {
		return
	}
	name, value, _ := strings.Cut(line, ":")
	if name != "data" {
		return
	}
	value = strings.TrimPrefix(value, " ")
	if *hasData {
		buf.WriteByte('\n')
	}
	buf.WriteString(value)
	*hasData = true
}
