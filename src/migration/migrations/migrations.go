package migrations

import (
	"git.hoosierptk.dev/forums/forums/src/migration/types"
)

var All = make(map[types.MigrationVersion]types.Migration)

func registerMigration(m types.Migration) {
	All[m.Version()] = m
}
