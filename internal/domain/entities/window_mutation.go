package entities

// WindowUpsert is the body of PUT /api/dev/windows. The backend always
// creates (or returns an exact duplicate); it never updates by id.
type WindowUpsert struct {
	DoctorID int64      `json:"doctorId"`
	Start    LocalTime  `json:"start"`
	End      LocalTime  `json:"end"`
	Kind     WindowKind `json:"kind"`
}

// WindowUpsertResult is the backend's answer to an upsert
type WindowUpsertResult struct {
	ID      int64 `json:"id"`
	Skipped bool  `json:"skipped,omitempty"`
}

// ScopeKind is the level a single-scope selection targets
type ScopeKind string

const (
	ScopeKindHospital   ScopeKind = "hospital"
	ScopeKindDepartment ScopeKind = "department"
	ScopeKindDoctor     ScopeKind = "doctor"
)

// Valid reports whether k is a supported scope level
func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeKindHospital, ScopeKindDepartment, ScopeKindDoctor:
		return true
	}
	return false
}

// Rule is a daily wall-clock interval in HH:MM form
type Rule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BulkAdjustRequest is the body of POST /api/dev/windows/bulk-adjust
type BulkAdjustRequest struct {
	ScopeKind ScopeKind `json:"scopeKind"`
	ScopeID   int64     `json:"scopeId"`
	DateStart string    `json:"dateStart"`
	DateEnd   string    `json:"dateEnd"`
	Available []Rule    `json:"available"`
	OOO       []Rule    `json:"ooo"`
	Overwrite bool      `json:"overwrite"`
}

// BulkAdjustResult is the backend's summary of a bulk adjustment
type BulkAdjustResult struct {
	OK       bool `json:"ok"`
	Inserted int  `json:"inserted"`
	Deleted  int  `json:"deleted"`
	Doctors  int  `json:"doctors"`
	Days     int  `json:"days"`
}
