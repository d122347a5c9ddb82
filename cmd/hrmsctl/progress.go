// HRMS Vault - HR Management System Backup and Restore Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hrmsvault

package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
)

const refreshRate = 100 * time.Millisecond

func byteTemplate(description string) string {
	return fmt.Sprintf(`{{ %q }} {{ bar . "[" "=" ">" " " "]"}} {{speed . }} {{percent . }} {{rtime . " ETA"}}`, description)
}

func countTemplate(description string) string {
	return fmt.Sprintf(`{{ %q }} {{ bar . "[" "=" ">" " " "]"}} {{counters . }} {{percent . }}`, description)
}

// copyProgress wraps a writer with a byte progress bar. With quiet set it
// is a plain pass-through.
type copyProgress struct {
	w   io.Writer
	bar *pb.ProgressBar
}

func newCopyProgress(w io.Writer, size int64, description string, quiet bool) *copyProgress {
	if quiet {
		return &copyProgress{w: w}
	}
	bar := pb.New64(size)
	bar.Set(pb.SIBytesPrefix, true)
	bar.SetTemplateString(byteTemplate(description))
	bar.SetRefreshRate(refreshRate)
	bar.Start()
	return &copyProgress{w: bar.NewProxyWriter(w), bar: bar}
}

func (p *copyProgress) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

// Close finishes the bar. It does not close the wrapped writer.
func (p *copyProgress) Close() error {
	if p.bar != nil {
		p.bar.Finish()
	}
	return nil
}

// spinner shows activity for work of unknown size.
type spinner struct {
	bar *pb.ProgressBar
}

func startSpinner(description string, quiet bool) *spinner {
	if quiet {
		return &spinner{}
	}
	bar := pb.New(0)
	bar.SetTemplateString(fmt.Sprintf(`{{ %q }} {{ cycle . "|" "/" "-" "\\" }}`, description))
	bar.SetRefreshRate(refreshRate)
	bar.Start()
	return &spinner{bar: bar}
}

func (s *spinner) Finish() {
	if s.bar != nil {
		s.bar.Finish()
	}
}

// importProgress renders one bar per entity type as the importer recreates
// records.
type importProgress struct {
	quiet bool

	mu     sync.Mutex
	entity string
	bar    *pb.ProgressBar
}

func newImportProgress(quiet bool) *importProgress {
	return &importProgress{quiet: quiet}
}

// Report satisfies backup.ProgressFunc.
func (p *importProgress) Report(entity string, done, total int) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if entity != p.entity || p.bar == nil {
		p.finishLocked()
		p.entity = entity
		p.bar = pb.New(total)
		p.bar.SetTemplateString(countTemplate(fmt.Sprintf("%-20s", entity)))
		p.bar.SetRefreshRate(refreshRate)
		p.bar.Start()
	}
	p.bar.SetCurrent(int64(done))
	if done >= total {
		p.finishLocked()
	}
}

// Finish stops any bar still running. Safe to call more than once.
func (p *importProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *importProgress) finishLocked() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
