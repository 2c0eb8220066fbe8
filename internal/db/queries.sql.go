package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, display_name, password_hash, created_at, last_login_at
FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.LastLoginAt,
	)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, display_name, password_hash, created_at, last_login_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.LastLoginAt,
	)
	return i, err
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users SET last_login_at = now() WHERE id = $1
`

func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, updateUserLastLogin, id)
	return err
}

const listUserNames = `-- name: ListUserNames :many
SELECT id, COALESCE(NULLIF(display_name, ''), username)::text AS display_name
FROM users
ORDER BY id
`

type ListUserNamesRow struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

func (q *Queries) ListUserNames(ctx context.Context) ([]ListUserNamesRow, error) {
	rows, err := q.db.Query(ctx, listUserNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListUserNamesRow
	for rows.Next() {
		var i ListUserNamesRow
		if err := rows.Scan(&i.ID, &i.DisplayName); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUserProjectRoles = `-- name: ListUserProjectRoles :many
SELECT project_id, role
FROM project_roles
WHERE user_id = $1
ORDER BY project_id, role
`

type ListUserProjectRolesRow struct {
	ProjectID string `json:"project_id"`
	Role      string `json:"role"`
}

func (q *Queries) ListUserProjectRoles(ctx context.Context, userID int64) ([]ListUserProjectRolesRow, error) {
	rows, err := q.db.Query(ctx, listUserProjectRoles, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListUserProjectRolesRow
	for rows.Next() {
		var i ListUserProjectRolesRow
		if err := rows.Scan(&i.ProjectID, &i.Role); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listUserProjects = `-- name: ListUserProjects :many
SELECT p.id, p.name
FROM projects p
WHERE EXISTS (
    SELECT 1 FROM project_roles r WHERE r.project_id = p.id AND r.user_id = $1
)
ORDER BY p.name, p.id
`

func (q *Queries) ListUserProjects(ctx context.Context, userID int64) ([]Project, error) {
	rows, err := q.db.Query(ctx, listUserProjects, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var i Project
		if err := rows.Scan(&i.ID, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const usageStatistics = `-- name: UsageStatistics :many
WITH spans AS (
    SELECT project_id, user_id, vcpus::numeric AS vcpus, 0::numeric AS volume_gb, started_at, ended_at
    FROM instance_usage
    UNION ALL
    SELECT project_id, user_id, 0::numeric, size_gb::numeric, created_at, deleted_at
    FROM volume_usage
),
clipped AS (
    SELECT project_id, user_id, vcpus, volume_gb,
           EXTRACT(EPOCH FROM (LEAST(COALESCE(ended_at, $2::timestamp), $2::timestamp)
                               - GREATEST(started_at, $1::timestamp)))::numeric / 3600 AS hours
    FROM spans
    WHERE started_at < $2::timestamp
      AND (ended_at IS NULL OR ended_at > $1::timestamp)
      AND (project_id = ANY($3::text[])
           OR (project_id = ANY($4::text[]) AND user_id = $5::bigint))
)
SELECT project_id, user_id,
       COALESCE(SUM(vcpus * hours), 0)::numeric AS cpu_hours,
       COALESCE(SUM(volume_gb * hours), 0)::numeric AS volume_gb_hours
FROM clipped
GROUP BY project_id, user_id
ORDER BY project_id, user_id
`

type UsageStatisticsParams struct {
	FromDate        pgtype.Timestamp `json:"from_date"`
	ToDate          pgtype.Timestamp `json:"to_date"`
	BillingProjects []string         `json:"billing_projects"`
	UserProjects    []string         `json:"user_projects"`
	UserID          int64            `json:"user_id"`
}

type UsageStatisticsRow struct {
	ProjectID     string         `json:"project_id"`
	UserID        int64          `json:"user_id"`
	CpuHours      pgtype.Numeric `json:"cpu_hours"`
	VolumeGbHours pgtype.Numeric `json:"volume_gb_hours"`
}

func (q *Queries) UsageStatistics(ctx context.Context, arg UsageStatisticsParams) ([]UsageStatisticsRow, error) {
	rows, err := q.db.Query(ctx, usageStatistics,
		arg.FromDate,
		arg.ToDate,
		arg.BillingProjects,
		arg.UserProjects,
		arg.UserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UsageStatisticsRow
	for rows.Next() {
		var i UsageStatisticsRow
		if err := rows.Scan(
			&i.ProjectID,
			&i.UserID,
			&i.CpuHours,
			&i.VolumeGbHours,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const imageStorageByProject = `-- name: ImageStorageByProject :many
SELECT project_id,
       COALESCE(SUM(size_gb::numeric
           * EXTRACT(EPOCH FROM (LEAST(COALESCE(deleted_at, $2::timestamp), $2::timestamp)
                                 - GREATEST(created_at, $1::timestamp)))::numeric / 3600), 0)::numeric AS image_gb_hours
FROM image_usage
WHERE created_at < $2::timestamp
  AND (deleted_at IS NULL OR deleted_at > $1::timestamp)
  AND project_id = ANY($3::text[])
GROUP BY project_id
ORDER BY project_id
`

type ImageStorageByProjectParams struct {
	FromDate   pgtype.Timestamp `json:"from_date"`
	ToDate     pgtype.Timestamp `json:"to_date"`
	ProjectIds []string         `json:"project_ids"`
}

type ImageStorageByProjectRow struct {
	ProjectID    string         `json:"project_id"`
	ImageGbHours pgtype.Numeric `json:"image_gb_hours"`
}

func (q *Queries) ImageStorageByProject(ctx context.Context, arg ImageStorageByProjectParams) ([]ImageStorageByProjectRow, error) {
	rows, err := q.db.Query(ctx, imageStorageByProject, arg.FromDate, arg.ToDate, arg.ProjectIds)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImageStorageByProjectRow
	for rows.Next() {
		var i ImageStorageByProjectRow
		if err := rows.Scan(&i.ProjectID, &i.ImageGbHours); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertUser = `-- name: UpsertUser :one
INSERT INTO users (username, display_name, password_hash)
VALUES ($1, $2, $3)
ON CONFLICT (username) DO UPDATE
SET display_name = EXCLUDED.display_name,
    password_hash = COALESCE(EXCLUDED.password_hash, users.password_hash)
RETURNING id, username, display_name, password_hash, created_at, last_login_at
`

type UpsertUserParams struct {
	Username     string      `json:"username"`
	DisplayName  string      `json:"display_name"`
	PasswordHash pgtype.Text `json:"password_hash"`
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, upsertUser, arg.Username, arg.DisplayName, arg.PasswordHash)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Username,
		&i.DisplayName,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.LastLoginAt,
	)
	return i, err
}

const upsertProject = `-- name: UpsertProject :exec
INSERT INTO projects (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
`

type UpsertProjectParams struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (q *Queries) UpsertProject(ctx context.Context, arg UpsertProjectParams) error {
	_, err := q.db.Exec(ctx, upsertProject, arg.ID, arg.Name)
	return err
}

const grantProjectRole = `-- name: GrantProjectRole :exec
INSERT INTO project_roles (user_id, project_id, role)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
`

type GrantProjectRoleParams struct {
	UserID    int64  `json:"user_id"`
	ProjectID string `json:"project_id"`
	Role      string `json:"role"`
}

func (q *Queries) GrantProjectRole(ctx context.Context, arg GrantProjectRoleParams) error {
	_, err := q.db.Exec(ctx, grantProjectRole, arg.UserID, arg.ProjectID, arg.Role)
	return err
}
