package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"wenum/internal/fuzzdata"
	"wenum/internal/plugin"
)

// sensitiveParams is the teacher's GetSensitiveParams() list from
// pkg/detector/mass_assignment.go, kept verbatim: the same parameter
// names are exactly as useful for discovering accepted-but-undocumented
// JSON fields during content discovery as they were for IDOR hunting.
var sensitiveParams = []string{
	"role", "admin", "is_admin", "isAdmin", "administrator",
	"permission", "permissions", "privilege", "privileges",
	"access_level", "accessLevel", "user_type", "userType",

	"email", "password", "password_hash", "passwordHash",
	"verified", "is_verified", "isVerified", "email_verified",
	"confirmed", "active", "status", "account_status",

	"balance", "credits", "points", "amount", "price",
	"discount", "coupon", "premium", "subscription",

	"user_id", "userId", "owner_id", "ownerId", "account_id",
	"org_id", "organization_id", "tenant_id", "tenantId",

	"created_at", "updated_at", "deleted_at", "internal",
	"debug", "_internal", "__proto__", "constructor",
}

// MassAssignment re-expresses the teacher's standalone
// MassAssignmentTester as a plugin (spec §4.7/§6.4): for a RESULT whose
// request body is a JSON object, it synthesizes BACKFEED requests re-issuing the
// same request with one sensitive parameter injected into the body at a
// time, letting the core's backfeed-cap/scope/cache gating (spec §4.7
// step 4) decide whether they actually run.
type MassAssignment struct {
	plugin.Base
}

func NewMassAssignment() *MassAssignment { return &MassAssignment{} }

func (m *MassAssignment) Name() string  { return "mass_assignment" }
func (m *MassAssignment) RunOnce() bool { return false }

// Validate only fires for POST/PUT/PATCH requests whose request body
// parses as a JSON object, matching the teacher's JSON-injection
// precondition.
func (m *MassAssignment) Validate(r *fuzzdata.ResultItem) bool {
	if r.History == nil || r.History.Request == nil || r.History.Response == nil {
		return false
	}
	switch r.History.Request.Method {
	case "POST", "PUT", "PATCH":
	default:
		return false
	}
	var probe map[string]any
	return json.Unmarshal(r.History.Request.Body, &probe) == nil
}

func (m *MassAssignment) Run(ctx context.Context, r *fuzzdata.ResultItem, out chan<- plugin.Output) {
	var base map[string]any
	if err := json.Unmarshal(r.History.Request.Body, &base); err != nil {
		return
	}

	queued := 0
	for _, param := range sensitiveParams {
		if _, exists := base[param]; exists {
			continue
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		bf := fuzzdata.NewBackfeed(r.URL, r.History.Request.Method, r.Priority(),
			r.BackfeedLevel+1, r.RLevel, r.PluginRLevel)
		bf.Body = injectedBody(base, param)
		out <- plugin.Output{Kind: plugin.KindSeed, Backfeed: bf}
		queued++
	}

	if queued > 0 {
		out <- plugin.Output{Kind: plugin.KindMessage,
			Message: fmt.Sprintf("mass_assignment: queued %d sensitive-parameter probe(s)", queued)}
	}
}

func injectedBody(base map[string]any, param string) []byte {
	probe := make(map[string]any, len(base)+1)
	for k, v := range base {
		probe[k] = v
	}
	probe[param] = sensitiveValueFor(param)
	data, _ := json.Marshal(probe)
	return data
}

func sensitiveValueFor(param string) any {
	switch param {
	case "role", "user_type", "userType":
		return "admin"
	case "admin", "is_admin", "isAdmin", "administrator", "verified", "is_verified", "isVerified", "active":
		return true
	case "balance", "credits", "points":
		return 999999
	default:
		return "injected_value"
	}
}

