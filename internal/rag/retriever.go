package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Conversly/lightning-whatsapp/internal/types"
	"github.com/Conversly/lightning-whatsapp/internal/utils"
)

// Header precedes the matched lines in a non-empty context block.
const Header = "The customer's message mentions these items from the catalog:"

const priceNotSpecified = "Price not specified"

// ResourceLister is the read side of the resource store.
type ResourceLister interface {
	ListResourcesByTenant(ctx context.Context, tenantID int64) ([]types.Resource, error)
}

// ContextBuilder matches catalog entries by name against an inbound message.
type ContextBuilder struct {
	resources ResourceLister
	maxLines  int
}

// NewContextBuilder caps the block at maxLines lines; 0 disables the cap.
func NewContextBuilder(resources ResourceLister, maxLines int) *ContextBuilder {
	if maxLines < 0 {
		maxLines = 0
	}
	return &ContextBuilder{resources: resources, maxLines: maxLines}
}

// Build returns the context block for the tenant, or "" when nothing matched.
// Resources that are not JSON arrays are skipped; only store errors are returned.
func (b *ContextBuilder) Build(ctx context.Context, tenantID int64, message string) (string, error) {
	resources, err := b.resources.ListResourcesByTenant(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to load resources: %w", err)
	}

	lines := MatchLines(resources, message, b.maxLines)
	utils.Zlog.Debug("Context built",
		zap.Int64("tenant_id", tenantID),
		zap.Int("resources", len(resources)),
		zap.Int("lines", len(lines)))

	return FormatContext(lines), nil
}

// MatchLines scans resources in order and returns one line per record whose
// name occurs, case-insensitively, inside message. Repeated lines are kept once.
func MatchLines(resources []types.Resource, message string, maxLines int) []string {
	haystack := strings.ToLower(message)
	seen := make(map[string]struct{})
	var lines []string

	for _, r := range resources {
		records, ok := parseRecords(r.Content)
		if !ok {
			continue
		}

		for _, rec := range records {
			name, ok := rec["name"].(string)
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			if !strings.Contains(haystack, strings.ToLower(name)) {
				continue
			}

			line := formatLine(name, rec)
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)

			if maxLines > 0 && len(lines) >= maxLines {
				return lines
			}
		}
	}
	return lines
}

func FormatContext(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return Header + "\n" + strings.Join(lines, "\n")
}

// parseRecords decodes content as a JSON array and keeps its object elements.
func parseRecords(content string) ([]map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, true
}

func formatLine(name string, rec map[string]any) string {
	switch price := rec["price"].(type) {
	case json.Number:
		return fmt.Sprintf("- %s, Price: $%s", name, price.String())
	case string:
		return fmt.Sprintf("- %s, Price: $%s", name, price)
	default:
		return fmt.Sprintf("- %s, %s", name, priceNotSpecified)
	}
}
