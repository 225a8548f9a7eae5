package chat

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Decoder reads the text deltas of a server-sent completion stream.
// Lines may be split across reads; comments, blank lines, non-data lines and
// undecodable payloads are skipped.
type Decoder struct {
	r    *bufio.Reader
	done bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next non-empty delta, io.EOF once the stream is over.
func (d *Decoder) Next() (string, error) {
	for !d.done {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return "", err
			}
			d.done = true // a last line may lack its newline
		}

		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])
		if payload == doneSentinel {
			d.done = true
			break
		}

		var c chunk
		if json.Unmarshal([]byte(payload), &c) != nil || len(c.Choices) == 0 {
			continue
		}
		if content := c.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
	return "", io.EOF
}

// EncodeChunk frames a text delta the way Next expects it.
func EncodeChunk(content string) ([]byte, error) {
	var c chunk
	c.Choices = make([]struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	}, 1)
	c.Choices[0].Delta.Content = content
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(dataPrefix), b...), '\n', '\n'), nil
}

// DoneChunk ends a stream.
func DoneChunk() []byte {
	return []byte(dataPrefix + doneSentinel + "\n\n")
}
