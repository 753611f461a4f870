//go:build !linux

package filestore

import (
	"os"
	"time"
)

func createdTime(_ string, fi os.FileInfo) time.Time {
	return fi.ModTime()
}
