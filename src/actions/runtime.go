package actions

import "github.com/stake-plus/finapp-discord/src/actions/core"

type (
	// Manager re-exports core.Manager for consumers outside the actions package.
	Manager = core.Manager
	// Module re-exports the core.Module interface.
	Module = core.Module
)
