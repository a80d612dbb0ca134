package entities

// Effect is the outcome class of a policy evaluation.
type Effect string

const (
	EffectAllow    Effect = "allow"
	EffectDeny     Effect = "deny"
	EffectFilterBy Effect = "filter_by"
)

// Decision is the result of evaluating (principal, resource, operation).
// A FilterBy decision narrows visibility to rows whose owner path resolves
// to OwnerID; it can only be conjoined with caller filters, never widened.
type Decision struct {
	Effect  Effect
	Owner   OwnerPath
	OwnerID string
	// Reason is a stable machine-readable tag for logs and 401/403 mapping.
	Reason string
}

func Allow(reason string) Decision {
	return Decision{Effect: EffectAllow, Reason: reason}
}

func Deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

func FilterBy(owner OwnerPath, ownerID, reason string) Decision {
	return Decision{Effect: EffectFilterBy, Owner: owner, OwnerID: ownerID, Reason: reason}
}

func (d Decision) Allowed() bool  { return d.Effect == EffectAllow }
func (d Decision) Denied() bool   { return d.Effect == EffectDeny }
func (d Decision) Filtered() bool { return d.Effect == EffectFilterBy }
