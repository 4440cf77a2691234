package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"talent/internal/domain/auth"
	"talent/internal/platform/config"
)

// Seed makes sure the permission catalogue, the built-in roles and their
// grants exist, plus the super-admin user that unresolved approval steps
// fall back to.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensurePermissions(ctx, pool); err != nil {
		return err
	}

	roleNames := make([]string, 0, len(auth.RolePermissions)+1)
	for roleName := range auth.RolePermissions {
		roleNames = append(roleNames, roleName)
	}
	if _, ok := auth.RolePermissions[cfg.SuperAdminRole]; !ok {
		roleNames = append(roleNames, cfg.SuperAdminRole)
	}

	roleIDs, err := ensureRoles(ctx, pool, roleNames)
	if err != nil {
		return err
	}

	if err := ensureRolePermissions(ctx, pool, roleIDs); err != nil {
		return err
	}

	return ensureUser(ctx, pool, roleIDs[cfg.SuperAdminRole], cfg.SeedSuperAdminEmail)
}

func ensurePermissions(ctx context.Context, pool *pgxpool.Pool) error {
	for _, perm := range auth.DefaultPermissions {
		_, err := pool.Exec(ctx, "INSERT INTO permissions (key) VALUES ($1) ON CONFLICT (key) DO NOTHING", perm)
		if err != nil {
			return err
		}
	}
	return nil
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool, names []string) (map[string]string, error) {
	roleIDs := map[string]string{}
	for _, roleName := range names {
		var id string
		err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", roleName).Scan(&id)
		if err == nil {
			roleIDs[roleName] = id
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		err = pool.QueryRow(ctx, "INSERT INTO roles (name) VALUES ($1) RETURNING id", roleName).Scan(&id)
		if err != nil {
			return nil, err
		}
		roleIDs[roleName] = id
	}
	return roleIDs, nil
}

func ensureRolePermissions(ctx context.Context, pool *pgxpool.Pool, roleIDs map[string]string) error {
	permMap := map[string]string{}
	rows, err := pool.Query(ctx, "SELECT id, key FROM permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return err
		}
		permMap[key] = id
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for roleName, perms := range auth.RolePermissions {
		roleID := roleIDs[roleName]
		for _, permKey := range perms {
			permID, ok := permMap[permKey]
			if !ok {
				return errors.New("permission not found: " + permKey)
			}
			_, err := pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permID)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, roleID, email string) error {
	if strings.TrimSpace(email) == "" || roleID == "" {
		return nil
	}
	_, err := pool.Exec(ctx, `
    INSERT INTO users (email, role_id)
    VALUES ($1, $2)
    ON CONFLICT (email) DO NOTHING
  `, email, roleID)
	return err
}
