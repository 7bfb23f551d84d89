// Package database はPostgreSQLへの遅延接続とスキーマのマイグレーションを提供する。
package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// schemaFS はusers、コンテンツ各テーブル、掲示板、管理者パスワードのスキーマ。
//
//go:embed migrations/*.sql
var schemaFS embed.FS

const schemaDir = "migrations"

// NewMigrator は埋め込みスキーマを使うmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is not set", ErrUnavailable)
	}

	source, err := iofs.New(schemaFS, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded schema: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// SchemaVersion はマイグレーション適用状況を表す。
type SchemaVersion struct {
	Version uint
	Dirty   bool
}

// RunMigrations は未適用のマイグレーションをすべて適用し、適用後のバージョンを返す。
// すでに最新の場合はエラーにならない。
// 前回の失敗でdirtyのままの場合は手動での確認が必要なため、適用せずにエラーを返す。
func RunMigrations(databaseURL string) (SchemaVersion, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return SchemaVersion{}, err
	}
	defer m.Close()

	if v, dirty, err := m.Version(); err == nil && dirty {
		return SchemaVersion{Version: v, Dirty: true}, fmt.Errorf("schema version %d is dirty; fix it and force the version before migrating", v)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return SchemaVersion{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion{Version: v, Dirty: dirty}, nil
}
