package store

import (
	"context"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const projectColumns = `id, name, url, created_at, updated_at`

// CreateProject inserts p, stamping its timestamps.
func (s *Store) CreateProject(ctx context.Context, p *graph.Project) error {
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.URL, toMillis(ts), toMillis(ts),
	)
	return translate(fmt.Sprintf("create project %q", p.ID), err)
}

// GetProject returns the project with the given id.
func (s *Store) GetProject(ctx context.Context, id string) (*graph.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get project %q", id), err)
	}
	return p, nil
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]*graph.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, translate("list projects", err)
	}
	defer rows.Close()

	out := []*graph.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, translate("scan project", err)
		}
		out = append(out, p)
	}
	return out, translate("list projects", rows.Err())
}

// DeleteProject removes a project and, through cascading foreign keys,
// everything it owns.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete project %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func scanProject(sc scanner) (*graph.Project, error) {
	var p graph.Project
	var created, updated int64
	if err := sc.Scan(&p.ID, &p.Name, &p.URL, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &p, nil
}
