package team

// AgentRole identifies one of the fixed agent specializations that take part
// in coordination sessions.
type AgentRole string

const (
	RoleSystemAnalyst AgentRole = "SystemAnalyst"
	RoleDevelopment   AgentRole = "Development"
	RoleMonitoring    AgentRole = "Monitoring"
	RoleStrategy      AgentRole = "Strategy"
	RoleSecurity      AgentRole = "Security"
)

// defaultWeight applies to roles outside the fixed set. Unknown roles are
// accepted rather than rejected so external contributors still count,
// a candidate for stricter validation.
const defaultWeight = 0.2

// roleWeights is the static per-role influence table. The five weights sum
// to 1.0. It is package-private so callers cannot mutate it.
var roleWeights = map[AgentRole]float64{
	RoleSystemAnalyst: 0.25,
	RoleDevelopment:   0.25,
	RoleMonitoring:    0.20,
	RoleStrategy:      0.20,
	RoleSecurity:      0.10,
}

// AllRoles returns the full role census in declaration order.
func AllRoles() []AgentRole {
	return []AgentRole{
		RoleSystemAnalyst,
		RoleDevelopment,
		RoleMonitoring,
		RoleStrategy,
		RoleSecurity,
	}
}

// Weight returns the static influence factor for a role. Roles outside the
// fixed set fall back to defaultWeight.
func (r AgentRole) Weight() float64 {
	if w, ok := roleWeights[r]; ok {
		return w
	}
	return defaultWeight
}

// Known reports whether the role belongs to the fixed five-role set.
func (r AgentRole) Known() bool {
	_, ok := roleWeights[r]
	return ok
}
