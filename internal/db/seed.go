package db

import (
	"context"
	"fmt"
	"strings"
)

// Employee is a fixture row of the employees table.
type Employee struct {
	ID      int64
	Name    string
	Entried string // YYYY-MM-DD
	Posts   []string
}

// SampleEmployees is the data set loaded by Seed.
func SampleEmployees() []Employee {
	return []Employee{
		{ID: 1, Name: "山田 太郎", Entried: "2012-04-01", Posts: []string{"営業", "企画"}},
		{ID: 2, Name: "田中 花子", Entried: "2018-10-01", Posts: []string{"開発"}},
		{ID: 3, Name: "佐藤 次郎", Entried: "2021-04-01", Posts: []string{"人事"}},
		{ID: 4, Name: "鈴木 一郎", Entried: "2009-07-15", Posts: []string{"経理", "総務"}},
		{ID: 5, Name: "高橋 美咲", Entried: "2023-04-01", Posts: []string{"開発", "品質保証"}},
		{ID: 6, Name: "100% Sales_Team", Entried: "2016-01-04", Posts: []string{"営業"}},
	}
}

func schema(d Dialect) []string {
	switch d {
	case DialectPostgres:
		return []string{
			`CREATE TABLE IF NOT EXISTS employees (
				id BIGINT PRIMARY KEY,
				name TEXT NOT NULL,
				entried DATE NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id BIGSERIAL PRIMARY KEY,
				employee_id BIGINT NOT NULL REFERENCES employees(id),
				name TEXT NOT NULL
			)`,
		}
	case DialectSQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS employees (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				entried TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS posts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				employee_id INTEGER NOT NULL REFERENCES employees(id),
				name TEXT NOT NULL
			)`,
		}
	default:
		return []string{
			`CREATE TABLE IF NOT EXISTS employees (
				id BIGINT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				entried DATE NOT NULL
			) DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS posts (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				employee_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				FOREIGN KEY (employee_id) REFERENCES employees(id)
			) DEFAULT CHARSET=utf8mb4`,
		}
	}
}

// Seed creates the employees and posts tables if needed and replaces their contents with
// SampleEmployees.
func (d *DB) Seed(ctx context.Context) error {
	return d.SeedWith(ctx, SampleEmployees())
}

// SeedWith is Seed with a caller-supplied data set.
func (d *DB) SeedWith(ctx context.Context, employees []Employee) error {
	for _, ddl := range schema(d.dialect) {
		if _, err := d.conn.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{"DELETE FROM posts", "DELETE FROM employees"} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset tables: %w", err)
		}
	}

	insertEmployee := fmt.Sprintf("INSERT INTO employees (id, name, entried) VALUES (%s)", d.placeholders(3))
	insertPost := fmt.Sprintf("INSERT INTO posts (employee_id, name) VALUES (%s)", d.placeholders(2))
	posts := 0
	for _, e := range employees {
		if _, err = tx.ExecContext(ctx, insertEmployee, e.ID, e.Name, e.Entried); err != nil {
			return fmt.Errorf("failed to insert employee %d: %w", e.ID, err)
		}
		for _, p := range e.Posts {
			if _, err = tx.ExecContext(ctx, insertPost, e.ID, p); err != nil {
				return fmt.Errorf("failed to insert post for employee %d: %w", e.ID, err)
			}
			posts++
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed data: %w", err)
	}

	d.logger.Info().Ctx(ctx).
		Str("operation", "seed").
		Int("employees", len(employees)).
		Int("posts", posts).
		Msg("database seeded")
	return nil
}

func (d *DB) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.dialect.Placeholder(i + 1)
	}
	return strings.Join(marks, ", ")
}
