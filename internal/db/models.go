package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           int64            `json:"id"`
	Username     string           `json:"username"`
	DisplayName  string           `json:"display_name"`
	PasswordHash pgtype.Text      `json:"password_hash"`
	CreatedAt    pgtype.Timestamp `json:"created_at"`
	LastLoginAt  pgtype.Timestamp `json:"last_login_at"`
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProjectRole struct {
	UserID    int64  `json:"user_id"`
	ProjectID string `json:"project_id"`
	Role      string `json:"role"`
}
