package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Config Errors (S100-S199)
	// ============================================

	"S101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No sugar.json was found in the current directory or any parent.",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "sugar.json is not valid JSON.",
	},
	"S103": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A value in sugar.json is out of range or of the wrong kind.",
	},

	// ============================================
	// Storage Errors (S200-S299)
	// ============================================

	"S201": {
		Category: CategoryStorage,
		Message:  "Storage backend misconfigured",
		Detail:   "The configured storage backend is missing a required setting.",
	},
	"S202": {
		Category: CategoryStorage,
		Message:  "Storage backend unavailable",
		Detail:   "The storage backend could not be opened.",
	},
	"S203": {
		Category: CategoryStorage,
		Message:  "Key not found",
		Detail:   "The storage backend has no value for this key.",
	},
	"S204": {
		Category: CategoryStorage,
		Message:  "Storage operation failed",
		Detail:   "Reading from or writing to the storage backend failed.",
	},
	"S205": {
		Category: CategoryStorage,
		Message:  "Listing not supported",
		Detail:   "The storage backend cannot enumerate its keys.",
	},

	// ============================================
	// CLI Errors (S300-S399)
	// ============================================

	"S301": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "A command argument or flag has an invalid value.",
	},
	"S302": {
		Category: CategoryCLI,
		Message:  "Walk failed",
		Detail:   "The directory tree could not be read.",
	},
	"S303": {
		Category: CategoryCLI,
		Message:  "Watch failed",
		Detail:   "The file system watcher could not be started.",
	},
	"S304": {
		Category: CategoryCLI,
		Message:  "Dictionary load failed",
		Detail:   "The i18n dictionaries could not be read.",
	},
	"S305": {
		Category: CategoryCLI,
		Message:  "Message not found",
		Detail:   "The dictionary has no message at this path.",
	},
	"S306": {
		Category: CategoryCLI,
		Message:  "Server failed",
		Detail:   "The inspector server stopped with an error.",
	},

	// ============================================
	// Store Errors (S400-S499)
	// ============================================

	"S401": {
		Category: CategoryStore,
		Message:  "Store not found",
		Detail:   "No store is registered under this name.",
	},
	"S402": {
		Category: CategoryStore,
		Message:  "Patch rejected",
		Detail:   "A patch must be a JSON object whose fields match the store state.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
