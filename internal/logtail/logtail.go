package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed logrus JSON line.
type Entry struct {
	Time      time.Time
	Level     logrus.Level
	Message   string
	Component string
	Error     string
	Fields    map[string]string
	// Raw is set when the line was not JSON.
	Raw string
}

// Parse decodes a logrus JSON line. Lines that are not JSON come back with
// only Raw set and the info level.
func Parse(line string) Entry {
	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		return Entry{Raw: line, Level: logrus.InfoLevel}
	}

	entry := Entry{Level: logrus.InfoLevel, Fields: map[string]string{}}
	for key, value := range data {
		text := fmt.Sprint(value)
		switch key {
		case logrus.FieldKeyTime:
			if ts, err := time.Parse(time.RFC3339Nano, text); err == nil {
				entry.Time = ts
			}
		case logrus.FieldKeyLevel:
			if lvl, err := logrus.ParseLevel(text); err == nil {
				entry.Level = lvl
			}
		case logrus.FieldKeyMsg:
			entry.Message = text
		case logrus.ErrorKey:
			entry.Error = text
		case "component":
			entry.Component = text
		default:
			entry.Fields[key] = text
		}
	}
	return entry
}

// ParseLines parses lines and keeps those at or above minLevel. Remember that
// logrus orders levels from most to least severe.
func ParseLines(lines []string, minLevel logrus.Level) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := Parse(line)
		if entry.Level > minLevel {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// String renders the entry on one line:
// "15:04:05 INFO  [component] message key=value error=...".
func (e Entry) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(e.Level.String()))
	if e.Component != "" {
		fmt.Fprintf(&b, " [%s]", e.Component)
	}
	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}
	for _, key := range e.FieldKeys() {
		fmt.Fprintf(&b, " %s=%s", key, e.Fields[key])
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	return b.String()
}

// FieldKeys returns the extra field names in sorted order.
func (e Entry) FieldKeys() []string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
