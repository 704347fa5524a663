package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/remotedev"
	"github.com/aretw0/remotedev/pkg/collector"
	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/transport"
)

// ReadReport loads a report from a JSON file. A missing userAgent is filled
// with the default.
func ReadReport(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	if err := collector.Validate(&report); err != nil {
		return nil, err
	}
	if report.UserAgent == "" {
		report.UserAgent = remotedev.DefaultUserAgent()
	}
	return &report, nil
}

// SendReport posts the report at path to url and returns the collector's id.
func SendReport(ctx context.Context, sender *transport.HTTPSender, url, path string, headers map[string]string) (string, error) {
	report, err := ReadReport(path)
	if err != nil {
		return "", err
	}
	return sender.Post(ctx, url, headers, report)
}
