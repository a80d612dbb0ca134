package entities

// Operation is the closed set of actions a policy shape distinguishes.
type Operation string

const (
	OperationRead   Operation = "read"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

func (op Operation) Valid() bool {
	switch op {
	case OperationRead, OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

func (op Operation) Mutating() bool {
	return op != OperationRead
}

// Shape is one of the four canonical authorization patterns. Every resource
// type is configured with exactly one shape; there is no free-form policy
// composition beyond this set.
type Shape string

const (
	// ShapeAdminOnly: privileged roles read everything, writes are admin
	// only; other principals read their own rows or nothing, depending on
	// the resource's DenyUnownedRead flag.
	ShapeAdminOnly Shape = "admin_only"
	// ShapeOwnerScoped: staff-visible + owner-scoped. Staff read everything,
	// authenticated non-privileged principals are filtered to their own
	// rows; creates are staff-only.
	ShapeOwnerScoped Shape = "owner_scoped"
	// ShapePublicRead: anyone reads, staff write.
	ShapePublicRead Shape = "public_read"
	// ShapeSelfService: owner-scoped, except any authenticated principal may
	// create; ownership of the new row is bound to the acting principal.
	ShapeSelfService Shape = "self_service"
)

func (s Shape) Valid() bool {
	switch s {
	case ShapeAdminOnly, ShapeOwnerScoped, ShapePublicRead, ShapeSelfService:
		return true
	default:
		return false
	}
}

// OwnerPath locates the owner reference of a resource row: either a direct
// column or one relation hop away (row.ViaLocalColumn → ViaTable.ViaKeyColumn,
// owner at ViaTable.ViaOwnerColumn).
type OwnerPath struct {
	Column string

	ViaTable       string
	ViaLocalColumn string
	ViaKeyColumn   string
	ViaOwnerColumn string
}

func (p OwnerPath) Direct() bool {
	return p.ViaTable == ""
}

// LocalColumn is the column on the resource's own table that the owner path
// hangs on: the owner column itself, or the foreign key of the one-hop path.
func (p OwnerPath) LocalColumn() string {
	if p.Direct() {
		return p.Column
	}
	return p.ViaLocalColumn
}

// ResourcePolicy binds one resource type to its shape, table, and owner path.
type ResourcePolicy struct {
	Resource string
	Table    string
	Shape    Shape
	Owner    OwnerPath

	// InstructorIsStaff widens the privileged read set from {service, admin}
	// to include instructors.
	InstructorIsStaff bool
	// InstructorCanWrite widens the write set of ShapePublicRead from
	// {admin} to {admin, instructor}.
	InstructorCanWrite bool
	// DenyUnownedRead makes ShapeAdminOnly deny non-privileged reads outright
	// instead of filtering to owned rows.
	DenyUnownedRead bool
}
