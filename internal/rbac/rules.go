package rbac

// Default policy for the practice platform. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"attempt:create",
		"attempt:answer",
		"attempt:submit",
		"attempt:view-own",
	},
	"teacher": {
		"test:create",
		"test:view",
		"attempt:view-all",
	},
	"admin": {
		"*", // everything
	},
}
