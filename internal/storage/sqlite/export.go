// ABOUTME: Export of the clinic's configuration snapshot
// ABOUTME: Supports YAML and Markdown formats for policies, knowledge and open tickets
package sqlite

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string         `yaml:"version" json:"version"`
	ExportedAt string         `yaml:"exported_at" json:"exported_at"`
	Tool       string         `yaml:"tool" json:"tool"`
	Policies   []ExportPolicy `yaml:"policies,omitempty" json:"policies,omitempty"`
	Chunks     []ExportChunk  `yaml:"chunks,omitempty" json:"chunks,omitempty"`
	Tickets    []ExportTicket `yaml:"open_tickets,omitempty" json:"open_tickets,omitempty"`
}

// ExportPolicy is an active policy value
type ExportPolicy struct {
	Key           string `yaml:"key" json:"key"`
	Value         string `yaml:"value" json:"value"`
	EffectiveFrom string `yaml:"effective_from" json:"effective_from"`
	UpdatedBy     string `yaml:"updated_by" json:"updated_by"`
}

// ExportChunk is a knowledge chunk without its embedding
type ExportChunk struct {
	ChunkID   string `yaml:"chunk_id" json:"chunk_id"`
	SourceURL string `yaml:"source_url" json:"source_url"`
	Title     string `yaml:"title" json:"title"`
	Tag       string `yaml:"tag" json:"tag"`
	Approved  bool   `yaml:"approved" json:"approved"`
	Version   string `yaml:"version" json:"version"`
	Content   string `yaml:"content" json:"content"`
}

// ExportTicket is an open escalation; the excerpt is already redacted at rest
type ExportTicket struct {
	TicketID  string `yaml:"ticket_id" json:"ticket_id"`
	Priority  string `yaml:"priority" json:"priority"`
	Reason    string `yaml:"reason" json:"reason"`
	Channel   string `yaml:"channel" json:"channel"`
	CreatedAt string `yaml:"created_at" json:"created_at"`
}

// Export collects the snapshot
func (s *Storage) Export(ctx context.Context) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tool:       "frontdesk",
	}

	policies, err := s.Policies.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	for _, p := range policies {
		data.Policies = append(data.Policies, ExportPolicy{
			Key:           p.Key,
			Value:         p.Value,
			EffectiveFrom: p.EffectiveFrom.Format(time.RFC3339),
			UpdatedBy:     p.UpdatedBy,
		})
	}

	chunks, err := s.Chunks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	for _, c := range chunks {
		data.Chunks = append(data.Chunks, ExportChunk{
			ChunkID:   c.ChunkID,
			SourceURL: c.SourceURL,
			Title:     c.Title,
			Tag:       string(c.Tag),
			Approved:  c.Approved,
			Version:   c.Version,
			Content:   c.Content,
		})
	}

	tickets, err := s.Tickets.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	for _, t := range tickets {
		data.Tickets = append(data.Tickets, ExportTicket{
			TicketID:  t.ID,
			Priority:  string(t.Priority),
			Reason:    t.Reason,
			Channel:   string(t.Channel),
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	return writeExport(outputPath, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	})
}

// ExportToMarkdown exports data to a Markdown file
func (s *Storage) ExportToMarkdown(ctx context.Context, outputPath string) error {
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	return writeExport(outputPath, func(file io.Writer) error {
		_, _ = fmt.Fprintf(file, "# Front Desk Export - %s\n\n", time.Now().Format("2006-01-02"))
		_, _ = fmt.Fprintf(file, "Generated: %s\n\n", data.ExportedAt)

		if len(data.Policies) > 0 {
			_, _ = fmt.Fprintln(file, "## Policies")
			_, _ = fmt.Fprintln(file)
			_, _ = fmt.Fprintln(file, "| Key | Value | Updated By |")
			_, _ = fmt.Fprintln(file, "|-----|-------|------------|")
			for _, p := range data.Policies {
				_, _ = fmt.Fprintf(file, "| %s | %s | %s |\n", p.Key, p.Value, p.UpdatedBy)
			}
			_, _ = fmt.Fprintln(file)
		}

		if len(data.Chunks) > 0 {
			_, _ = fmt.Fprintln(file, "## Knowledge")
			_, _ = fmt.Fprintln(file)
			for _, c := range data.Chunks {
				state := "approved"
				if !c.Approved {
					state = "pending"
				}
				_, _ = fmt.Fprintf(file, "- **%s** (%s, %s) %s\n", c.Title, c.Tag, state, c.SourceURL)
			}
			_, _ = fmt.Fprintln(file)
		}

		if len(data.Tickets) > 0 {
			_, _ = fmt.Fprintln(file, "## Open Escalations")
			_, _ = fmt.Fprintln(file)
			for _, t := range data.Tickets {
				_, _ = fmt.Fprintf(file, "- [%s] %s via %s (%s) `%s`\n", t.Priority, t.Reason, t.Channel, t.CreatedAt, t.TicketID)
			}
			_, _ = fmt.Fprintln(file)
		}
		return nil
	})
}

func writeExport(outputPath string, write func(io.Writer) error) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return write(file)
}
