package ui

import (
	"github.com/nyarchlinux/nyarchify/pkg/catalog"
)

// Started implements catalog.Reporter
func (p *Printer) Started(op catalog.Operation) {
	p.Section(op.Prompt)
}

// Succeeded implements catalog.Reporter
func (p *Printer) Succeeded(op catalog.Operation) {
	if op.Done != "" {
		p.Success("%s", op.Done)
	}
}

// Failed implements catalog.Reporter
func (p *Printer) Failed(op catalog.Operation, err error) {
	p.Error("[%d] failed: %v", op.ID, err)
}

// Summary lists which selected operations completed
func (p *Printer) Summary(log catalog.Log) {
	if len(log.Results) == 0 && len(log.Skipped) == 0 {
		return
	}
	p.Section("Summary")
	for _, r := range log.Succeeded() {
		p.Success("[%d] %s", r.ID, r.Prompt)
	}
	for _, r := range log.Failed() {
		p.Error("[%d] %s", r.ID, r.Error)
	}
	for _, id := range log.Skipped {
		p.Warn("[%d] not run (interrupted)", id)
	}
}

var _ catalog.Reporter = (*Printer)(nil)
