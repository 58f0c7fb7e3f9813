package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/zeroshoteval/pkg/errors"
)

// SaveGob writes v to filename with encoding/gob.
//
// Example:
//
//	side := map[string]model.Matrix{"sentences": model.MatrixOf(aux)}
//	err := model.SaveGob(side, "CUB_supporting_data.gob")
func SaveGob(v interface{}, filename string) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.NewIOError("create", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", filename, cerr)
		}
	}()

	return SaveGobToWriter(v, file)
}

// LoadGob decodes filename into v, which must be a pointer.
func LoadGob(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError("open", filename, err)
	}
	defer file.Close()

	if err := LoadGobFromReader(v, file); err != nil {
		return errors.NewIOError("decode", filename, err)
	}
	return nil
}

// SaveGobToWriter encodes v to w.
func SaveGobToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "gob encode")
	}
	return nil
}

// LoadGobFromReader decodes one value from r into v.
func LoadGobFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "gob decode")
	}
	return nil
}
