package domain

// Capability names a permission that both the API and the client gate on.
type Capability string

const (
	CapLogActivity        Capability = "log_activity"
	CapSendTrainerRequest Capability = "send_trainer_request"
	CapManageAthletes     Capability = "manage_athletes"
	CapManagePlans        Capability = "manage_plans"
	CapUsePlanBuilder     Capability = "use_plan_builder"
	CapMessage            Capability = "message"
	CapSyncIntegrations   Capability = "sync_integrations"
	CapAdminUsers         Capability = "admin_users"
	CapAdminAssignments   Capability = "admin_assignments"
	CapAdminInvites       Capability = "admin_invites"
	CapViewStats          Capability = "view_stats"
)

var athleteCapabilities = []Capability{
	CapLogActivity,
	CapSendTrainerRequest,
	CapMessage,
	CapSyncIntegrations,
}

var trainerCapabilities = []Capability{
	CapLogActivity,
	CapSendTrainerRequest,
	CapManageAthletes,
	CapManagePlans,
	CapUsePlanBuilder,
	CapMessage,
	CapSyncIntegrations,
}

var adminOnlyCapabilities = []Capability{
	CapAdminUsers,
	CapAdminAssignments,
	CapAdminInvites,
	CapViewStats,
}

var capabilityTable = buildCapabilityTable()

func buildCapabilityTable() map[Role]map[Capability]bool {
	table := map[Role]map[Capability]bool{
		RoleAthlete: {},
		RoleTrainer: {},
		RoleAdmin:   {},
	}
	for _, c := range athleteCapabilities {
		table[RoleAthlete][c] = true
	}
	for _, c := range trainerCapabilities {
		table[RoleTrainer][c] = true
		table[RoleAdmin][c] = true
	}
	for _, c := range adminOnlyCapabilities {
		table[RoleAdmin][c] = true
	}
	return table
}

// Can reports whether the role holds capability c.
func (r Role) Can(c Capability) bool {
	return capabilityTable[r][c]
}

// CapabilitiesFor lists the capabilities of a role in a stable order.
func CapabilitiesFor(r Role) []Capability {
	var out []Capability
	all := append(append([]Capability{}, trainerCapabilities...), adminOnlyCapabilities...)
	for _, c := range all {
		if r.Can(c) {
			out = append(out, c)
		}
	}
	return out
}
