package domain

// Report is the wire entity sent to a collector.
// Payload and PreloadedState hold already-serialized JSON text.
type Report struct {
	Type           ReportType `json:"type"`
	Action         string     `json:"action,omitempty"`
	Payload        *string    `json:"payload,omitempty"`
	PreloadedState *string    `json:"preloadedState,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
	Screenshot     string     `json:"screenshot,omitempty"`
	Version        string     `json:"version,omitempty"`
	AppID          string     `json:"appId,omitempty"`
	InstanceID     string     `json:"instanceId,omitempty"`
	UserAgent      string     `json:"userAgent,omitempty"`
	User           any        `json:"user,omitempty"`
	Meta           any        `json:"meta,omitempty"`
	Exception      string     `json:"exception,omitempty"`
}

// Clone returns a shallow copy that can be mutated without touching r.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// HasException reports whether the report was forced by a host error.
func (r *Report) HasException() bool {
	return r != nil && r.Exception != ""
}
