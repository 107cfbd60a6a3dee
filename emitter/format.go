package emitter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// CSV writes "ax,ay,az,time" lines with two decimals on the axes
type CSV struct {
	mu sync.Mutex
	w  io.Writer
}

func NewCSV(w io.Writer) *CSV {
	return &CSV{w: w}
}

func (c *CSV) Emit(s Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%.2f,%.2f,%.2f,%d\n", s.AccelX, s.AccelY, s.AccelZ, s.Timestamp)
	return err
}

// JSONLines writes one JSON object per sample
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

func (j *JSONLines) Emit(s Sample) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(s)
}
