package testutil

// Fixed identifiers for deterministic testing.
const (
	TestTenantID  = "tenant-ouagadougou-centre"
	TestClientID  = "client-000123"
	TestAgentID   = "agent-007"
	TestAgentName = "Awa Traore"
)
