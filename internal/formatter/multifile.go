package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// VersionLayout is the time layout of migration version prefixes.
const VersionLayout = "20060102150405"

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9]+`)

// Migration is a pair of scripts plus the report describing the up direction.
type Migration struct {
	Up     string
	Down   string
	Report Report
}

// MigrationDirFormatter writes a migration to a directory as
// <version>_<name>.up.sql, <version>_<name>.down.sql and _overview.md
type MigrationDirFormatter struct {
	OutputDir string
	Name      string
	// Now supplies the version timestamp; defaults to time.Now.
	Now func() time.Time
}

// NewMigrationDirFormatter creates a new migration directory formatter
func NewMigrationDirFormatter(outputDir, name string) *MigrationDirFormatter {
	return &MigrationDirFormatter{
		OutputDir: outputDir,
		Name:      name,
		Now:       time.Now,
	}
}

// Format writes the migration files and returns their paths, up script first.
func (f *MigrationDirFormatter) Format(m *Migration) ([]string, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := f.baseName()
	files := []struct {
		name    string
		content string
	}{
		{base + ".up.sql", m.Up},
		{base + ".down.sql", m.Down},
	}

	var written []string
	for _, file := range files {
		path := filepath.Join(f.OutputDir, file.name)
		if err := os.WriteFile(path, []byte(strings.TrimRight(file.content, "\n")+"\n"), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.name, err)
		}
		written = append(written, path)
	}

	overview, err := f.writeOverview(m.Report, base)
	if err != nil {
		return nil, fmt.Errorf("failed to write overview: %w", err)
	}
	return append(written, overview), nil
}

// writeOverview writes the markdown report without the SQL block; the
// scripts sit next to it.
func (f *MigrationDirFormatter) writeOverview(r Report, base string) (string, error) {
	path := filepath.Join(f.OutputDir, "_overview.md")

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	r.SQL = ""
	if err := NewMarkdownFormatter(file).Format(r); err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(file, "## Files\n\n- `%s.up.sql`\n- `%s.down.sql`\n", base, base)
	return path, nil
}

func (f *MigrationDirFormatter) baseName() string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return now().UTC().Format(VersionLayout) + "_" + SanitizeName(f.Name)
}

// SanitizeName lower-cases name and collapses anything outside [a-z0-9] to
// single underscores. An empty result becomes "migration".
func SanitizeName(name string) string {
	s := unsafeNameChars.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "migration"
	}
	return s
}
