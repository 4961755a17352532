package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

type csvLoader struct{}

func (csvLoader) CanLoad(path string) bool {
	return hasExt(path, ".csv", ".tsv", ".txt")
}

func (csvLoader) Load(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadDelimited(filepath.Base(path), f, sniffByName(path, opt.Delimiter), opt)
}

// ReadDelimited parses delimited text from r. A zero delim is sniffed from
// the header line.
func ReadDelimited(name string, r io.Reader, delim rune, opt LoadOptions) (*Table, error) {
	dec, err := decoderFor(opt.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(dec.Reader(r))
	if delim == 0 {
		head, _ := br.Peek(8 << 10)
		delim = sniffDelimiter(head)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name, nil, nil)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return FromStrings(name, header, records, opt.Parse)
}

func decoderFor(label string) (*encoding.Decoder, error) {
	if strings.TrimSpace(label) == "" {
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return unicode.UTF8BOM.NewDecoder(), nil
	}
	return enc.NewDecoder(), nil
}

func sniffByName(path string, delim rune) rune {
	if delim != 0 {
		return delim
	}
	if hasExt(path, ".tsv") {
		return '\t'
	}
	return 0
}

// sniffDelimiter picks the candidate that occurs most often on the first
// line; comma wins ties.
func sniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestN := ',', bytes.Count(head, []byte{','})
	for _, c := range []rune{';', '\t', '|'} {
		if n := bytes.Count(head, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
