package store

import (
	"context"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const pageColumns = `id, project_id, url, title, created_at, updated_at`

// UpsertPage inserts p or, when (project_id, url) already exists, keeps the
// existing row and only replaces its title if p.Title is non-empty. The
// stored row is returned either way.
func (s *Store) UpsertPage(ctx context.Context, p *graph.Page) (*graph.Page, error) {
	ts := toMillis(now())
	op := fmt.Sprintf("upsert page %q", p.URL)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, url) DO UPDATE SET
			title = CASE WHEN excluded.title <> '' THEN excluded.title ELSE pages.title END,
			updated_at = CASE WHEN excluded.title <> '' AND excluded.title <> pages.title
				THEN excluded.updated_at ELSE pages.updated_at END`,
		p.ID, p.ProjectID, p.URL, p.Title, ts, ts,
	)
	if err != nil {
		return nil, translate(op, err)
	}
	return s.GetPageByURL(ctx, p.ProjectID, p.URL)
}

// GetPage returns the page with the given id.
func (s *Store) GetPage(ctx context.Context, id string) (*graph.Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	p, err := scanPage(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get page %q", id), err)
	}
	return p, nil
}

// GetPageByURL returns the page registered for url within a project.
func (s *Store) GetPageByURL(ctx context.Context, projectID, url string) (*graph.Page, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE project_id = ? AND url = ?`, projectID, url)
	p, err := scanPage(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get page %q", url), err)
	}
	return p, nil
}

// ListPages returns the pages of a project, newest first.
func (s *Store) ListPages(ctx context.Context, projectID string) ([]*graph.Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
	if err != nil {
		return nil, translate("list pages", err)
	}
	defer rows.Close()

	out := []*graph.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, translate("scan page", err)
		}
		out = append(out, p)
	}
	return out, translate("list pages", rows.Err())
}

// DeletePage removes a page and the UI states that belong to it.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete page %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func scanPage(sc scanner) (*graph.Page, error) {
	var p graph.Page
	var created, updated int64
	if err := sc.Scan(&p.ID, &p.ProjectID, &p.URL, &p.Title, &created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &p, nil
}
