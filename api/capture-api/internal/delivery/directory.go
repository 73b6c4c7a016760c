// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_delivery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	internal_type "github.com/rapidaai/capture-studio/api/capture-api/internal/type"
	"github.com/rapidaai/capture-studio/pkg/commons"
)

// maxDuplicates bounds the "name (n).ext" search in a crowded directory.
const maxDuplicates = 10000

// Directory saves artifacts into a folder the way a browser saves downloads: an
// existing camera_feed.webm is never overwritten, the next free "camera_feed (n).webm"
// is used instead.
type Directory struct {
	logger commons.Logger
	dir    string
}

func NewDirectory(logger commons.Logger, dir string) *Directory {
	return &Directory{logger: logger, dir: dir}
}

func (d *Directory) Deliver(ctx context.Context, artifact *internal_type.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	ext := filepath.Ext(artifact.Filename)
	stem := strings.TrimSuffix(artifact.Filename, ext)
	for i := 0; i < maxDuplicates; i++ {
		name := artifact.Filename
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(d.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := f.Write(artifact.Data); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", name, err)
		}
		d.logger.Infow("recording saved", "path", path, "bytes", artifact.Size())
		return nil
	}
	return fmt.Errorf("no free file name for %s in %s", artifact.Filename, d.dir)
}
