package txlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Scanner reads transactions from a log one at a time.
//
//	sc, err := txlog.NewScanner(f, "")
//	for sc.Scan() {
//	    tx := sc.Transaction()
//	    ...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	sc   *bufio.Scanner
	line int
	tx   Transaction
}

// NewScanner wraps r, decoding it from enc. The empty string means UTF-8.
func NewScanner(r io.Reader, enc string) (*Scanner, error) {
	decoded, err := decodeReader(r, enc)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(decoded)
	buf := make([]byte, 0, ScannerInitialBufferSize)
	sc.Buffer(buf, ScannerMaxLineSize)

	return &Scanner{sc: sc}, nil
}

// Scan advances to the next transaction, skipping blank and comment lines.
// It returns false at end of input or on a read error.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		s.line++
		text := s.sc.Bytes()
		if s.line == 1 {
			text = bytes.TrimPrefix(text, UTF8BOM)
		}
		if tx, ok := ParseLine(string(text), s.line); ok {
			s.tx = tx
			return true
		}
	}
	return false
}

// Transaction returns the transaction produced by the last successful Scan.
func (s *Scanner) Transaction() Transaction { return s.tx }

// Line returns the number of lines read so far.
func (s *Scanner) Line() int { return s.line }

// Err returns the first read error, if any.
func (s *Scanner) Err() error {
	if err := s.sc.Err(); err != nil {
		return fmt.Errorf("reading transaction log: %w", err)
	}
	return nil
}

// ParseAll reads every transaction from r.
func ParseAll(r io.Reader, enc string) ([]Transaction, error) {
	sc, err := NewScanner(r, enc)
	if err != nil {
		return nil, err
	}
	var txs []Transaction
	for sc.Scan() {
		txs = append(txs, sc.Transaction())
	}
	return txs, sc.Err()
}

// decodeReader wraps r with a decoder for enc.
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	switch normalizeEncoding(enc) {
	case "", EncodingUTF8:
		return r, nil
	case EncodingUTF16LE:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil
	case EncodingWindows1252:
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case EncodingLatin1:
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("txlog: unsupported encoding %q", enc)
	}
}

// normalizeEncoding maps common spellings onto the Encoding* constants.
func normalizeEncoding(enc string) string {
	switch e := strings.ToUpper(strings.TrimSpace(enc)); e {
	case "UTF8":
		return EncodingUTF8
	case "UTF16LE", "UTF-16":
		return EncodingUTF16LE
	case "CP1252", "WINDOWS1252":
		return EncodingWindows1252
	case "LATIN1", "LATIN-1", "ISO8859-1":
		return EncodingLatin1
	default:
		return e
	}
}

// ValidEncoding reports whether enc is accepted by NewScanner.
func ValidEncoding(enc string) bool {
	switch normalizeEncoding(enc) {
	case "", EncodingUTF8, EncodingUTF16LE, EncodingWindows1252, EncodingLatin1:
		return true
	}
	return false
}
