package internstore

import (
	"github.com/gostonefire/internstore/internal/file"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/gostonefire/internstore/storeerr"
	log "github.com/sirupsen/logrus"
)

// allShapes - Shape value giving the complete set of sibling file names
const allShapes int64 = 0

// CopyFiles - Copies every present file of the index with base name src to base name dst. The files are
// copied concurrently and every destination is replaced atomically. The source should not be open for
// writing.
func CopyFiles(src, dst string) (err error) {
	if src == dst {
		err = storeerr.Unsupport("cannot copy %s onto itself", src)
		return
	}

	var from, to []string
	dstNames := storage.FileNames(dst, allShapes)
	for i, name := range storage.FileNames(src, allShapes) {
		if file.Exists(name) {
			from = append(from, name)
			to = append(to, dstNames[i])
		}
	}
	if len(from) == 0 {
		err = storeerr.NotFound("no index files for %s", src)
		return
	}

	if err = file.CopyFiles(from, to); err != nil {
		return
	}

	log.WithFields(log.Fields{"from": src, "to": dst, "files": len(from)}).Debug("copied index files")

	return
}

// RemoveFiles - Removes every file of the index with base name base. Missing files are ignored and the index
// must be closed first.
func RemoveFiles(base string) (err error) {
	if err = file.RemoveFiles(storage.FileNames(base, allShapes)...); err != nil {
		return
	}

	log.WithField("file", base).Debug("removed index files")

	return
}
