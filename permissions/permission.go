// Package permissions maps each routed endpoint to the roles allowed to call it.
package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"resort/shared/constant"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

var knownRoles = []string{constant.RoleAdmin, constant.RoleReception, constant.RoleUser}

// Permission guards one chi route pattern. Skip marks a public endpoint.
type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`
}

// FindPermissions returns the rule for a route pattern. A trailing slash is
// not significant, so "/v1/users" and "/v1/users/" share one rule.
func (r *PermissionData) FindPermissions(path, method string) (Permission, bool) {
	key := routeKey(path)

	idx := slices.IndexFunc(r.Endpoints, func(p Permission) bool {
		return routeKey(p.Path) == key && strings.EqualFold(p.Method, method)
	})

	if idx == -1 {
		return Permission{}, false
	}

	return r.Endpoints[idx], true
}

func routeKey(path string) string {
	if len(path) > 1 {
		return strings.TrimSuffix(path, "/")
	}

	return path
}

// Parse decodes a permissions document and rejects unknown roles, unknown
// methods and duplicate routes.
func Parse(data []byte) (*PermissionData, error) {
	var doc PermissionData

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	seen := make(map[string]bool, len(doc.Endpoints))

	for _, endpoint := range doc.Endpoints {
		route := strings.ToUpper(endpoint.Method) + " " + routeKey(endpoint.Path)

		switch {
		case !slices.Contains([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}, strings.ToUpper(endpoint.Method)):
			return nil, fmt.Errorf("unsupported method in %q", route)
		case seen[route]:
			return nil, fmt.Errorf("duplicate permission for %q", route)
		}

		for _, role := range endpoint.Permissions {
			if !slices.Contains(knownRoles, role) {
				return nil, fmt.Errorf("unknown role %q for %q", role, route)
			}
		}

		seen[route] = true
	}

	return &doc, nil
}

// Get loads the embedded permissions. A nil result makes RBAC deny every
// protected request.
func Get() *PermissionData {
	doc, err := Parse(permissionsData)
	if err != nil {
		log.Err(err).Msg("Failed to load embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(doc.Endpoints)).Msg("Loaded embedded permissions")

	return doc
}
