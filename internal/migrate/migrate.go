// Package migrate applies the versioned SQL scripts embedded in the binary.
//
// Every script carries a "-- +migrate Up" and a "-- +migrate Down" section.
// Scripts run in lexical order and each applied version is recorded in the
// schema_migrations table; a script that fails is not recorded.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

//go:embed migrations
var embedded embed.FS

const (
	table      = "schema_migrations"
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

type schemaMigration struct {
	Version   string `gorm:"primaryKey;size:255"`
	AppliedAt int64  `gorm:"not null"`
}

func (schemaMigration) TableName() string { return table }

// Migration is one parsed script.
type Migration struct {
	Version string
	Up      []string
	Down    []string
}

// Entry reports the state of one known migration.
type Entry struct {
	Version   string
	Applied   bool
	AppliedAt time.Time
}

type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// New loads the scripts matching the dialect of gdb.
func New(gdb *gorm.DB) (*Migrator, error) {
	return NewFromFS(gdb, embedded, path.Join("migrations", gdb.Dialector.Name()))
}

// NewFromFS loads the *.sql files directly under root in fsys.
func NewFromFS(gdb *gorm.DB, fsys fs.FS, root string) (*Migrator, error) {
	ms, err := Load(fsys, root)
	if err != nil {
		return nil, err
	}
	return &Migrator{db: gdb, migrations: ms}, nil
}

// Load parses the scripts under root, sorted by version.
func Load(fsys fs.FS, root string) ([]Migration, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		up, down := Sections(string(content))
		out = append(out, Migration{
			Version: strings.TrimSuffix(e.Name(), ".sql"),
			Up:      Statements(up),
			Down:    Statements(down),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Sections splits a script into its up and down halves. A script without
// markers is all up.
func Sections(content string) (up, down string) {
	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)
	switch {
	case upIdx == -1 && downIdx == -1:
		return content, ""
	case upIdx == -1:
		return content[:downIdx], content[downIdx+len(downMarker):]
	case downIdx == -1:
		return content[upIdx+len(upMarker):], ""
	case downIdx < upIdx:
		return content[upIdx+len(upMarker):], content[downIdx+len(downMarker) : upIdx]
	default:
		return content[upIdx+len(upMarker) : downIdx], content[downIdx+len(downMarker):]
	}
}

// Statements splits a section on ";" and drops comment lines and blanks.
func Statements(section string) []string {
	var lines []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (m *Migrator) Migrations() []Migration {
	return m.migrations
}

// Up applies every pending migration and returns the versions it ran.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := exec(tx, mig.Up); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{Version: mig.Version, AppliedAt: time.Now().UTC().UnixMilli()}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migrate up %s: %w", mig.Version, err)
		}
		ran = append(ran, mig.Version)
	}
	return ran, nil
}

// Down reverts the newest steps applied migrations. steps <= 0 reverts all.
func (m *Migrator) Down(ctx context.Context, steps int) ([]string, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(m.migrations) - 1; i >= 0; i-- {
		if steps > 0 && len(reverted) == steps {
			break
		}
		mig := m.migrations[i]
		if _, ok := applied[mig.Version]; !ok {
			continue
		}
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := exec(tx, mig.Down); err != nil {
				return err
			}
			return tx.Where("version = ?", mig.Version).Delete(&schemaMigration{}).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migrate down %s: %w", mig.Version, err)
		}
		reverted = append(reverted, mig.Version)
	}
	return reverted, nil
}

func (m *Migrator) Status(ctx context.Context) ([]Entry, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(m.migrations))
	for _, mig := range m.migrations {
		e := Entry{Version: mig.Version}
		if at, ok := applied[mig.Version]; ok {
			e.Applied = true
			e.AppliedAt = time.UnixMilli(at).UTC()
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]int64, error) {
	gdb := m.db.WithContext(ctx)
	if err := gdb.AutoMigrate(&schemaMigration{}); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", table, err)
	}
	var rows []schemaMigration
	if err := gdb.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Version] = r.AppliedAt
	}
	return out, nil
}

func exec(tx *gorm.DB, stmts []string) error {
	if len(stmts) == 0 {
		return errors.New("empty migration section")
	}
	for _, s := range stmts {
		if err := tx.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
