package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"feedwin/internal/model"
)

// ReadItems decodes a feed file: either one JSON array of items or JSON lines.
func ReadItems(r io.Reader) ([]model.Item, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []model.Item{}, nil
	}
	if err != nil {
		return nil, err
	}
	if first == '[' {
		var out []model.Item
		if err := json.NewDecoder(br).Decode(&out); err != nil {
			return nil, fmt.Errorf("parse items: %w", err)
		}
		if out == nil {
			out = []model.Item{}
		}
		return out, nil
	}

	out := []model.Item{}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var it model.Item
		if err := json.Unmarshal(b, &it); err != nil {
			return nil, fmt.Errorf("parse items jsonl line %d: %w", line, err)
		}
		out = append(out, it)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func LoadFile(path string) ([]model.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadItems(f)
}

// Pager hands out a loaded collection one page at a time, standing in for a remote feed.
type Pager struct {
	items []model.Item
	pos   int
}

func NewPager(items []model.Item) *Pager {
	return &Pager{items: items}
}

// Next returns up to n items and whether more remain.
func (p *Pager) Next(n int) ([]model.Item, bool) {
	if n <= 0 {
		n = 1
	}
	end := min(p.pos+n, len(p.items))
	page := p.items[p.pos:end]
	p.pos = end
	return page, p.pos < len(p.items)
}

func (p *Pager) Remaining() int {
	return len(p.items) - p.pos
}
