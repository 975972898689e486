package logger

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/mattn/go-colorable"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	fileWriter     io.WriteCloser
	fileWriterOnce sync.Once
)

// SetWriter returns the sink for the process logger: colored stdout, a rotated file, or both.
func SetWriter(console bool, path string) io.Writer {
	var writers []io.Writer
	if console {
		writers = append(writers, colorable.NewColorableStdout())
	}
	if path != "" {
		fileWriterOnce.Do(func() {
			fileWriter = &lumberjack.Logger{
				Filename:   filepath.Clean(path),
				MaxBackups: 30,  // files
				MaxSize:    500, // megabytes
				MaxAge:     30,  // days
				Compress:   true,
			}
		})
		writers = append(writers, fileWriter)
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return io.MultiWriter(writers...)
}

// CloseWriter flushes and closes the rotated file, if one was opened.
func CloseWriter() error {
	if fileWriter == nil {
		return nil
	}
	return fileWriter.Close()
}
