package ram

import (
	"bytes"
	"io"

	"github.com/gostonefire/internstore/internal/conf"
	"github.com/gostonefire/internstore/internal/file"
	"github.com/gostonefire/internstore/internal/model"
	"github.com/gostonefire/internstore/internal/storage"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Provider - Creates in-memory stores and loads them from store files
type Provider struct {
	opts storage.Options
}

// NewProvider - Returns a pointer to a new Provider
func NewProvider(opts storage.Options) *Provider {
	return &Provider{opts: opts.WithDefaults()}
}

// Create - Creates an empty in-memory store
func (P *Provider) Create(name string, width int) (storage.Store, error) {
	s, err := New(name, width, P.opts)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Open - Loads a store file into memory
func (P *Provider) Open(name string) (storage.Store, error) {
	s, err := Load(name, P.opts)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Persistent - In-memory stores are not persistent
func (P *Provider) Persistent() bool {
	return false
}

// Save - Writes the store to fileName in the store file format, replacing any existing file atomically.
// The file holds exactly Size cells.
func Save(s *Store, fileName string) (err error) {
	header := model.Header{
		Version:    conf.FormatVersion,
		Width:      s.width,
		ParamCount: s.paramCount,
		Size:       s.size,
		Params:     s.params,
	}

	readers := []io.Reader{bytes.NewReader(storage.HeaderToBytes(header))}
	remaining := s.size * int64(s.width)
	for _, seg := range s.segs {
		if remaining <= 0 {
			break
		}
		part := seg
		if int64(len(part)) > remaining {
			part = part[:remaining]
		}
		readers = append(readers, bytes.NewReader(part))
		remaining -= int64(len(part))
	}

	err = atomic.WriteFile(fileName, io.MultiReader(readers...))
	if err != nil {
		err = errors.Wrapf(err, "save %s", fileName)
		return
	}

	log.WithFields(log.Fields{"file": fileName, "cells": s.size, "width": s.width}).Debug("saved store")

	return
}

// Load - Reads a store file into a new in-memory store. A shared lock is held on the file while reading.
func Load(fileName string, opts storage.Options) (s *Store, err error) {
	opts = opts.WithDefaults()

	f, header, _, err := file.OpenStoreFile(fileName, true, opts.LockWait)
	if err != nil {
		return
	}
	defer func() { _ = file.CloseFile(f, false) }()

	s, err = New(fileName, header.Width, opts)
	if err != nil {
		return
	}
	s.params = header.Params
	s.paramCount = header.ParamCount

	if err = s.SetCapacity(header.Size); err != nil {
		return
	}

	if _, err = f.Seek(conf.HeaderLength, io.SeekStart); err != nil {
		err = errors.Wrapf(err, "seek %s", fileName)
		return
	}

	remaining := header.Size * int64(header.Width)
	for _, seg := range s.segs {
		if remaining <= 0 {
			break
		}
		part := seg
		if int64(len(part)) > remaining {
			part = part[:remaining]
		}
		if _, err = io.ReadFull(f, part); err != nil {
			_ = s.Close()
			s = nil
			err = errors.Wrapf(err, "read %s", fileName)
			return
		}
		remaining -= int64(len(part))
	}
	s.size = header.Size

	log.WithFields(log.Fields{"file": fileName, "cells": s.size, "width": s.width}).Debug("loaded store")

	return
}
