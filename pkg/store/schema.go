package store

// SchemaVersion is the highest migration version known to this build.
const SchemaVersion = 1

// Migration describes a single schema change. Migrations are applied in
// order and recorded in schema_migrations.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the ordered list of schema migrations.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: projects, pages, ui_states, edges, labels, operation_sessions, ui_state_transitions",
		SQL: `
CREATE TABLE IF NOT EXISTS projects (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    url         TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pages (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    url         TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    UNIQUE (project_id, url)
);

CREATE TABLE IF NOT EXISTS ui_states (
    id           TEXT PRIMARY KEY,
    project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    page_id      TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
    page_url     TEXT NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    is_default   INTEGER NOT NULL DEFAULT 0,
    html         TEXT,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ui_states_project ON ui_states(project_id);
CREATE INDEX IF NOT EXISTS idx_ui_states_page ON ui_states(project_id, page_url);
CREATE UNIQUE INDEX IF NOT EXISTS idx_ui_states_single_default
    ON ui_states(project_id, page_url) WHERE is_default = 1;

CREATE TABLE IF NOT EXISTS edges (
    id                TEXT PRIMARY KEY,
    project_id        TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    from_ui_state_id  TEXT NOT NULL REFERENCES ui_states(id) ON DELETE CASCADE,
    to_ui_state_id    TEXT NOT NULL REFERENCES ui_states(id) ON DELETE CASCADE,
    description       TEXT NOT NULL DEFAULT '',
    triggered_by      TEXT,
    trigger_type      TEXT,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,
    UNIQUE (project_id, from_ui_state_id, to_ui_state_id)
);
CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_ui_state_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_ui_state_id);

CREATE TABLE IF NOT EXISTS labels (
    id               TEXT PRIMARY KEY,
    project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    selector         TEXT NOT NULL,
    xpath            TEXT,
    element_text     TEXT,
    url              TEXT NOT NULL,
    query_params     TEXT,
    ui_state_id      TEXT REFERENCES ui_states(id) ON DELETE SET NULL,
    trigger_actions  TEXT,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_labels_project_url ON labels(project_id, url);
CREATE INDEX IF NOT EXISTS idx_labels_ui_state ON labels(ui_state_id);

CREATE TABLE IF NOT EXISTS operation_sessions (
    id          TEXT PRIMARY KEY,
    project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    start_time  INTEGER NOT NULL,
    end_time    INTEGER,
    user_goal   TEXT,
    status      TEXT NOT NULL DEFAULT 'active',
    summary     TEXT,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_project ON operation_sessions(project_id);

CREATE TABLE IF NOT EXISTS ui_state_transitions (
    id                 TEXT PRIMARY KEY,
    session_id         TEXT NOT NULL REFERENCES operation_sessions(id) ON DELETE CASCADE,
    project_id         TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    from_ui_state_id   TEXT REFERENCES ui_states(id) ON DELETE SET NULL,
    to_ui_state_id     TEXT NOT NULL REFERENCES ui_states(id) ON DELETE CASCADE,
    trigger_action     TEXT NOT NULL,
    trigger_timestamp  INTEGER NOT NULL,
    before_state       TEXT NOT NULL,
    after_state        TEXT NOT NULL,
    metadata           TEXT,
    created_at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_session ON ui_state_transitions(session_id);
CREATE INDEX IF NOT EXISTS idx_transitions_project ON ui_state_transitions(project_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_transitions_unique_step
    ON ui_state_transitions(session_id, to_ui_state_id, COALESCE(from_ui_state_id, ''), trigger_timestamp);
`,
	},
}
