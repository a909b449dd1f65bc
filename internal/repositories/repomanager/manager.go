package repomanager

import (
	"context"
	"database/sql"

	"github.com/taxpilot/docvault/internal/dbx"
	"github.com/taxpilot/docvault/internal/repositories/files"
	"github.com/taxpilot/docvault/internal/repositories/keys"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Keys(db dbx.DBTX) keys.Repository
	Files(db dbx.DBTX) files.Repository
}
