package teamset

import (
	"context"
	"fmt"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

type row map[string]interface{}

type memTable struct {
	columns map[string]bool
	rows    []row
}

type probe struct {
	table  string
	column string
	value  interface{}
}

// memStore evaluates the builder statements against in-memory tables.
type memStore struct {
	order   []string
	tables  map[string]*memTable
	selects []probe
	updates []sqlutil.Update
	failOn  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		tables: make(map[string]*memTable),
		failOn: make(map[string]error),
	}
}

func (m *memStore) addTable(name string, columns ...string) *memStore {
	t := &memTable{columns: make(map[string]bool)}
	for _, c := range columns {
		t.columns[c] = true
	}
	m.order = append(m.order, name)
	m.tables[name] = t
	return m
}

func (m *memStore) insert(table string, r row) *memStore {
	m.tables[table].rows = append(m.tables[table].rows, r)
	return m
}

// teamSetSchema creates the four team set tables and an empty teams table.
func (m *memStore) teamSetSchema() *memStore {
	return m.
		addTable("team_sets", "id", "deleted", "date_modified").
		addTable("team_sets_teams", "id", "team_set_id", "team_id", "deleted", "date_modified").
		addTable("team_sets_modules", "id", "team_set_id", "module_table_name", "deleted").
		addTable("teams", "id", "deleted")
}

func (m *memStore) ListTables(ctx context.Context) ([]string, error) {
	if err := m.failOn["list"]; err != nil {
		return nil, err
	}
	return append([]string(nil), m.order...), nil
}

func (m *memStore) ListColumns(ctx context.Context, table string) (map[string]bool, error) {
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	out := make(map[string]bool, len(t.columns))
	for c := range t.columns {
		out[c] = true
	}
	return out, nil
}

func (m *memStore) Select(ctx context.Context, q sqlutil.Select) ([]string, error) {
	if _, _, err := q.Build(); err != nil {
		return nil, err
	}
	if err := m.failOn[q.Table]; err != nil {
		return nil, err
	}
	for _, c := range q.Where {
		if c.Op == sqlutil.OpEq && c.Column != "deleted" {
			m.selects = append(m.selects, probe{table: q.Table, column: c.Column, value: c.Value})
		}
	}
	return m.query(q)
}

func (m *memStore) query(q sqlutil.Select) ([]string, error) {
	t, ok := m.tables[q.Table]
	if !ok {
		return nil, fmt.Errorf("table %s does not exist", q.Table)
	}
	if !t.columns[q.Column] {
		return nil, fmt.Errorf("unknown column %s.%s", q.Table, q.Column)
	}

	var out []string
	seen := make(map[string]bool)
	for _, r := range t.rows {
		ok, err := m.match(t, q.Table, r, q.Where)
		if err != nil {
			return nil, err
		}
		if !ok || r[q.Column] == nil {
			continue
		}
		v := fmt.Sprint(r[q.Column])
		if q.GroupBy != "" {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		out = append(out, v)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) match(t *memTable, table string, r row, where []sqlutil.Cond) (bool, error) {
	for _, c := range where {
		if !t.columns[c.Column] {
			return false, fmt.Errorf("unknown column %s.%s", table, c.Column)
		}
		v := r[c.Column]
		switch c.Op {
		case sqlutil.OpEq:
			if v == nil || fmt.Sprint(v) != fmt.Sprint(c.Value) {
				return false, nil
			}
		case sqlutil.OpIsNull:
			if v != nil {
				return false, nil
			}
		case sqlutil.OpNotNull:
			if v == nil {
				return false, nil
			}
		case sqlutil.OpNotIn:
			if v == nil {
				return false, nil
			}
			sub, err := m.query(*c.Sub)
			if err != nil {
				return false, err
			}
			for _, s := range sub {
				if s == fmt.Sprint(v) {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

func (m *memStore) Update(ctx context.Context, u sqlutil.Update) (int64, error) {
	if _, _, err := u.Build(); err != nil {
		return 0, err
	}
	if err := m.failOn["update:"+u.Table]; err != nil {
		return 0, err
	}
	m.updates = append(m.updates, u)

	t, ok := m.tables[u.Table]
	if !ok {
		return 0, fmt.Errorf("table %s does not exist", u.Table)
	}
	var n int64
	for _, r := range t.rows {
		ok, err := m.match(t, u.Table, r, u.Where)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		for _, a := range u.Set {
			r[a.Column] = a.Value
		}
		n++
	}
	return n, nil
}

// probesOf returns the recorded existence probes for value, in issue order.
func (m *memStore) probesOf(value string) []probe {
	var out []probe
	for _, p := range m.selects {
		if fmt.Sprint(p.value) == value {
			out = append(out, p)
		}
	}
	return out
}

// deletedIDs returns the ids of table whose deleted flag is set.
func (m *memStore) deletedIDs(table, column string) []string {
	var out []string
	for _, r := range m.tables[table].rows {
		if fmt.Sprint(r["deleted"]) == "1" {
			out = append(out, fmt.Sprint(r[column]))
		}
	}
	return out
}
