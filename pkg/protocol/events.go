package protocol

// WebSocket event names pushed from server to client.
const (
	EventAgent              = "agent"
	EventChat               = "chat"
	EventHealth             = "health"
	EventCron               = "cron"
	EventExecApprovalReq    = "exec.approval.requested"
	EventExecApprovalRes    = "exec.approval.resolved"
	EventPresence           = "presence"
	EventTick               = "tick"
	EventShutdown           = "shutdown"
	EventNodePairRequested  = "node.pair.requested"
	EventNodePairResolved   = "node.pair.resolved"
	EventDevicePairReq      = "device.pair.requested"
	EventDevicePairRes      = "device.pair.resolved"
	EventVoicewakeChanged   = "voicewake.changed"
	EventConnectChallenge   = "connect.challenge"
	EventHeartbeat          = "heartbeat"
	EventTalkMode           = "talk.mode"

	// Agent summoning events (predefined agent setup via LLM).
	EventAgentSummoning = "agent.summoning"

	// Agent handoff event (payload: from_agent, to_agent, reason).
	EventHandoff = "handoff"

	// Team activity events (real-time team workflow visibility).
	EventTeamTaskCreated     = "team.task.created"
	EventTeamTaskCompleted   = "team.task.completed"
	EventTeamMessageSent     = "team.message.sent"
	EventDelegationStarted   = "delegation.started"
	EventDelegationCompleted = "delegation.completed"

	// Cache invalidation events (internal, not forwarded to WS clients).
	EventCacheInvalidate = "cache.invalidate"

	// Zalo Personal QR login events (client-scoped, not broadcast).
	EventZaloPersonalQRCode = "zalo.personal.qr.code"
	EventZaloPersonalQRDone = "zalo.personal.qr.done"
)

// Agent event subtypes (in payload.type)
const (
	AgentEventRunStarted   = "run.started"
	AgentEventRunCompleted = "run.completed"
	AgentEventRunFailed    = "run.failed"
	AgentEventRunRetrying  = "run.retrying"
	AgentEventToolCall     = "tool.call"
	AgentEventToolResult   = "tool.result"
)

// Chat event subtypes (in payload.type)
const (
	ChatEventChunk     = "chunk"
	ChatEventMessage   = "message"
	ChatEventThinking  = "thinking"
)

// Canvas server-to-client (S2C) frame types: the canvas
// bridge's own typed WS protocol, distinct from the chat-oriented event
// names above.
const (
	S2CCanvasSnapshot = "s2c:canvas:snapshot"
	S2CCanvasChange   = "s2c:canvas:change"
	S2CAgentStatus    = "s2c:agent:status"
	S2CTextDelta      = "s2c:text:delta"
	S2CTextComplete   = "s2c:text:complete"
	S2CToolStart      = "s2c:tool:start"
	S2CToolProgress   = "s2c:tool:progress"
	S2CToolEnd        = "s2c:tool:end"
	S2CError          = "s2c:error"
)

// Canvas client-to-server (C2S) frame types.
const (
	C2SPing       = "c2s:ping"
	C2SMessage    = "c2s:message"
	C2SClick      = "c2s:click"
	C2SFormSubmit = "c2s:form_submit"
	C2SDrag       = "c2s:drag"
	C2SAbort      = "c2s:abort"
)
