package database_test

import (
	// Registers embedded migration files. This blank import lives in the
	// external test package to avoid an import cycle: migrations imports
	// database, so the in-package tests cannot import migrations directly.
	_ "github.com/nerrad567/printwatch-core/migrations"
)
