package csv

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
)

// Writer writes a stream of rows of type T as RFC 4180 CSV with
// \r\n-terminated rows (spec.md §6) and a header written immediately on
// construction, even if zero rows follow -- matching collate_main's
// behavior of writing each output's header row the moment the file is
// opened, independent of how many data rows it ends up holding.
type Writer[T any] struct {
	cw  *csv.Writer
	enc *csvutil.Encoder
}

// NewWriter constructs a Writer over w and writes T's header row.
func NewWriter[T any](w io.Writer) (*Writer[T], error) {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	enc := csvutil.NewEncoder(cw)

	var zero T
	if err := enc.EncodeHeader(zero); err != nil {
		return nil, fmt.Errorf("csv: header: %w", err)
	}
	return &Writer[T]{cw: cw, enc: enc}, nil
}

// WriteRow encodes one row.
func (w *Writer[T]) WriteRow(row T) error {
	if err := w.enc.Encode(row); err != nil {
		return fmt.Errorf("csv: encode row: %w", err)
	}
	return nil
}

// Flush flushes the underlying csv.Writer and returns any error it
// accumulated.
func (w *Writer[T]) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// Reader decodes a stream of rows of type T, reading the header row
// produced by Writer to determine field order.
type Reader[T any] struct {
	dec *csvutil.Decoder
}

// NewReader constructs a Reader over r.
func NewReader[T any](r io.Reader) (*Reader[T], error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, fmt.Errorf("csv: decoder: %w", err)
	}
	return &Reader[T]{dec: dec}, nil
}

// Read decodes the next row, returning io.EOF when the input is
// exhausted.
func (r *Reader[T]) Read() (T, error) {
	var v T
	if err := r.dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}
