package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// EnsureDir creates the folder (and parents) if it does not exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return os.MkdirAll(dir, 0777)
	}
	return nil
}

// takes a save path and a variable number of strings and writes them to file separated by new lines
func WriteToFile(savePath string, content ...string) error {
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	return os.WriteFile(savePath, []byte(strings.Join(content, "\n")+"\n"), 0644)
}

// AppendToFile adds the lines at the end of the file, creating it if needed
func AppendToFile(savePath string, content ...string) error {
	if len(content) == 0 {
		return nil
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", savePath)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.Join(content, "\n") + "\n"); err != nil {
		return errors.Wrapf(err, "appending to %s", savePath)
	}
	return nil
}

// WriteJSON stores the value indented, creating parent folders
func WriteJSON(savePath string, v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding json")
	}
	if err := EnsureDir(filepath.Dir(savePath)); err != nil {
		return err
	}
	return os.WriteFile(savePath, bs, 0644)
}

func ReadJSON(path string, v interface{}) error {
	bs, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading file")
	}
	if err := json.Unmarshal(bs, v); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	return nil
}
