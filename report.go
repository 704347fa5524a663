package remotedev

import (
	"github.com/aretw0/remotedev/internal/buffer"
	"github.com/aretw0/remotedev/pkg/domain"
)

// buildReport serializes a snapshot into a report. single holds the entry
// sent in ModeEvery.
func (e *Enhancer) buildReport(actionType string, snap buffer.Snapshot, single any, hasOne bool) *domain.Report {
	r := &domain.Report{
		Type:        e.reportType,
		Action:      actionType,
		Title:       e.cfg.Title,
		Description: e.cfg.Description,
		Screenshot:  e.cfg.Screenshot,
		Version:     e.cfg.Version,
		AppID:       e.cfg.AppID,
		InstanceID:  e.cfg.InstanceID,
		UserAgent:   e.cfg.UserAgent,
		User:        e.cfg.User,
		Meta:        e.cfg.Meta,
	}

	switch e.mode {
	case ModeEvery:
		if hasOne {
			r.Payload = e.stringify(single)
		}
	case ModeOnlyState:
		if snap.HasPreloaded {
			r.PreloadedState = e.stringify(snap.PreloadedState)
		}
	default:
		r.Payload = e.stringify(snap.Entries)
		if snap.HasPreloaded {
			r.PreloadedState = e.stringify(snap.PreloadedState)
		}
	}
	return r
}

func (e *Enhancer) stringify(v any) *string {
	out := e.serializer.Stringify(v)
	return &out
}
