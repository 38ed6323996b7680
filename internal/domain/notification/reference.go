package notification

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MetadataEntitlementID is the metadata key stamped on remote objects.
	MetadataEntitlementID = "entitlement_id"

	referenceSeparator = "|"
	entitlementSegment = "ent:"
)

// Reference is the external reference stamped on remote objects at link
// creation, encoded as user:<U>|ent:<E>|order:<O>|plan:<P>.
type Reference struct {
	UserID        uint
	EntitlementID uint
	OrderID       string
	PlanCode      string
}

func (r Reference) String() string {
	return fmt.Sprintf("user:%d|ent:%d|order:%s|plan:%s", r.UserID, r.EntitlementID, r.OrderID, r.PlanCode)
}

// Metadata returns the structured metadata stamped alongside the reference.
func (r Reference) Metadata() map[string]any {
	return map[string]any{
		MetadataEntitlementID: r.EntitlementID,
		"user_id":             r.UserID,
		"plan_code":           r.PlanCode,
	}
}

// ParseReference decodes an external reference. Unknown segments are
// ignored; the ent segment is required.
func ParseReference(s string) (Reference, error) {
	var ref Reference
	var hasEnt bool
	for _, part := range strings.Split(s, referenceSeparator) {
		key, value, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		switch key {
		case "user":
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Reference{}, fmt.Errorf("invalid user segment %q: %w", value, err)
			}
			ref.UserID = uint(id)
		case "ent":
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return Reference{}, fmt.Errorf("invalid ent segment %q: %w", value, err)
			}
			ref.EntitlementID = uint(id)
			hasEnt = true
		case "order":
			ref.OrderID = value
		case "plan":
			ref.PlanCode = value
		}
	}
	if !hasEnt {
		return Reference{}, fmt.Errorf("reference %q has no ent segment", s)
	}
	return ref, nil
}

// LocateEntitlementID extracts the entitlement id from a remote object.
// Metadata wins over the external reference when it yields a non-zero id.
func LocateEntitlementID(metadata map[string]any, externalReference string) (uint, bool) {
	if raw, ok := metadata[MetadataEntitlementID]; ok {
		if id, ok := coerceID(raw); ok && id != 0 {
			return id, true
		}
	}

	for _, part := range strings.Split(externalReference, referenceSeparator) {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, entitlementSegment) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(part, entitlementSegment), 10, 64)
		if err != nil || id == 0 {
			return 0, false
		}
		return uint(id), true
	}
	return 0, false
}

func coerceID(v any) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != math.Trunc(n) {
			return 0, false
		}
		return uint(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint(n), true
	case uint:
		return n, true
	case uint64:
		return uint(n), true
	case json.Number:
		id, err := strconv.ParseUint(n.String(), 10, 64)
		return uint(id), err == nil
	case string:
		id, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		return uint(id), err == nil
	default:
		return 0, false
	}
}
