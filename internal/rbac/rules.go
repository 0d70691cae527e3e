package rbac

// Default policy for the three roles. Admins configure the system,
// managers evaluate their reports, collaborators read their own
// history.
var RolePermissions = map[string][]string{
	"collaborator": {
		"questionnaire:view",
		"evaluation:view-own",
		"plan:view-own",
		"user:change_password",
	},
	"manager": {
		"questionnaire:view",
		"evaluation:create",
		"evaluation:view-team",
		"plan:view-team",
		"users:list",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
