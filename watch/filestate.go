package watch

import (
	"io"
	"os"
	"syscall"
	"time"

	"textscan/input"
)

// FileState 记录单个文件的扫描进度
type FileState struct {
	Path     string    `json:"path"`
	Offset   int64     `json:"offset"`
	Size     int64     `json:"size"`
	Inode    uint64    `json:"inode"`
	Device   uint64    `json:"device"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	file   *os.File
	reader *input.Reader
	base   int64
}

func NewFileState(path string) (*FileState, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	stat := info.Sys().(*syscall.Stat_t)
	state := &FileState{
		Path:     path,
		Size:     stat.Size,
		Inode:    stat.Ino,
		Device:   stat.Dev,
		Created:  info.ModTime(),
		Modified: info.ModTime(),
	}
	return state, nil
}

// Open positions the file at the recorded offset and layers the
// lookahead reader on top of it.
func (f *FileState) Open() (*input.Reader, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(f.Offset, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}
	f.file = file
	f.base = f.Offset
	f.reader = input.NewReader(input.NewBufferedSource(file))
	return f.reader, nil
}

// Checkpoint moves the offset to the first byte the scanner has not
// consumed. The buffered layer reads ahead of consumption, so the
// offset follows Reader.Consumed, never the raw file position.
func (f *FileState) Checkpoint() {
	if f.reader != nil {
		f.Offset = f.base + f.reader.Consumed()
	}
}

func (f *FileState) Close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}
