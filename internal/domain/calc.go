package domain

import (
	"time"

	"github.com/google/uuid"
)

// CalcType describes one calculation family: its storage table, the tag used
// in audit records, and the placeholder name applied when a user saves a
// calculation without naming it.
//
// LinkColumn names the nullable column referencing the parent valve design.
// Not every deployment has finished the migration adding it, so its presence
// is resolved at runtime (see adapter/postgres/calc).
type CalcType struct {
	// Entity is the lower-case tag used in audit records, e.g. "dc011".
	Entity string
	// Table is the backing table name, e.g. "dc011_calcs".
	Table string
	// DefaultName substitutes a blank name on create/rename, e.g. "DC011".
	DefaultName string
	// LinkColumn is the optional parent-design column ("" = this type has none).
	LinkColumn string
}

// HasLink reports whether this type declares a parent-design column at all.
func (t CalcType) HasLink() bool { return t.LinkColumn != "" }

// The calculation families carried over from the desktop sheets.
// ValveDesign is the parent type the dcNNN link columns point at.
var (
	TypeValveDesign = CalcType{Entity: "valve_design", Table: "valve_designs", DefaultName: "Untitled"}
	TypeDC001       = CalcType{Entity: "dc001", Table: "dc001_calcs", DefaultName: "DC001", LinkColumn: "design_id"}
	TypeDC001A      = CalcType{Entity: "dc001a", Table: "dc001a_calcs", DefaultName: "DC001A", LinkColumn: "design_id"}
	TypeDC002       = CalcType{Entity: "dc002", Table: "dc002_calcs", DefaultName: "DC002", LinkColumn: "design_id"}
	TypeDC002A      = CalcType{Entity: "dc002a", Table: "dc002a_calcs", DefaultName: "DC002A", LinkColumn: "design_id"}
	TypeDC003       = CalcType{Entity: "dc003", Table: "dc003_calcs", DefaultName: "DC003", LinkColumn: "design_id"}
	TypeDC005       = CalcType{Entity: "dc005", Table: "dc005_calcs", DefaultName: "DC005", LinkColumn: "design_id"}
	TypeDC005A      = CalcType{Entity: "dc005a", Table: "dc005a_calcs", DefaultName: "DC005A", LinkColumn: "design_id"}
	TypeDC006A      = CalcType{Entity: "dc006a", Table: "dc006a_calcs", DefaultName: "DC006A", LinkColumn: "design_id"}
	TypeDC011       = CalcType{Entity: "dc011", Table: "dc011_calcs", DefaultName: "DC011", LinkColumn: "design_id"}
	TypeDC012       = CalcType{Entity: "dc012", Table: "dc012_calcs", DefaultName: "DC012", LinkColumn: "design_id"}
)

// CalcTypes lists every registered type, dashboard order.
var CalcTypes = []CalcType{
	TypeValveDesign,
	TypeDC001, TypeDC001A,
	TypeDC002, TypeDC002A,
	TypeDC003,
	TypeDC005, TypeDC005A,
	TypeDC006A,
	TypeDC011, TypeDC012,
}

// CalcTypeByEntity resolves a type by its entity tag.
func CalcTypeByEntity(entity string) (CalcType, bool) {
	for _, t := range CalcTypes {
		if t.Entity == entity {
			return t, true
		}
	}
	return CalcType{}, false
}

// CalcRecord is one stored calculation. Payload is the verbatim JSON document
// the calculation sheet produced; the store never inspects or validates it.
// Metadata lives in its own fields, so payload keys can never collide with it.
type CalcRecord struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Payload   map[string]any
	DesignID  *uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalcSummary is the list-view projection of a record.
type CalcSummary struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalcUpdateParams carries the optional fields of an update.
// All-nil params are a no-op by contract.
type CalcUpdateParams struct {
	Name     *string
	Payload  map[string]any
	DesignID *uuid.UUID
}

// IsEmpty reports whether no field was supplied.
func (p CalcUpdateParams) IsEmpty() bool {
	return p.Name == nil && p.Payload == nil && p.DesignID == nil
}

// CalcAdminFilter narrows admin listings across all users.
type CalcAdminFilter struct {
	// NameLike filters by ILIKE '%...%' on name.
	NameLike *string
	// DesignID filters by the parent-design column (ignored while absent).
	DesignID *uuid.UUID
	// OwnerIDs restricts to the given owners (resolved from a username filter).
	OwnerIDs []uuid.UUID
	// Limit bounds the result. Zero means the service default.
	Limit int
}

// AdminCalcRow is one row of an admin listing: the summary plus owner and
// the raw payload for flattened projections.
type AdminCalcRow struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	DesignID  *uuid.UUID
	Payload   map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}
