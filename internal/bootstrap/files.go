package bootstrap

// Workspace file names seeded into a fresh agent workspace. Agents read
// and, in the case of AGENTS.md/SOUL.md/USER.md, are expected to edit
// these over the lifetime of a workspace.
const (
	AgentsFile    = "AGENTS.md"
	SoulFile      = "SOUL.md"
	ToolsFile     = "TOOLS.md"
	IdentityFile  = "IDENTITY.md"
	UserFile      = "USER.md"
	HeartbeatFile = "HEARTBEAT.md"
	BootstrapFile = "BOOTSTRAP.md"
)
