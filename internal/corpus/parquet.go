package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet emits the non-blank values of a top-level string column,
// row group by row group. Null and non byte-array values are ignored.
func ReadParquet(path, column string, emit EmitFunc) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open parquet file: %w", err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("stat parquet file %q: %w", path, err)
	}

	pf, err := parquet.OpenFile(fh, info.Size())
	if err != nil {
		return fmt.Errorf("read parquet file %q: %w", path, err)
	}

	leaf, ok := pf.Schema().Lookup(column)
	if !ok {
		return fmt.Errorf("parquet file %q has no column %q", path, column)
	}

	for i, rg := range pf.RowGroups() {
		if err := readColumnChunk(rg.ColumnChunks()[leaf.ColumnIndex], emit); err != nil {
			return fmt.Errorf("read %q row group %d: %w", path, i, err)
		}
	}

	return nil
}

func readColumnChunk(chunk parquet.ColumnChunk, emit EmitFunc) error {
	pages := chunk.Pages()
	defer pages.Close()

	for {
		page, err := pages.ReadPage()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		values := make([]parquet.Value, page.NumValues())

		n, err := page.Values().ReadValues(values)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		for _, v := range values[:n] {
			if v.IsNull() || v.Kind() != parquet.ByteArray {
				continue
			}

			if err := emitTrimmed(string(v.ByteArray()), emit); err != nil {
				return err
			}
		}
	}
}
