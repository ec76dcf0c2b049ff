package grid

import (
	"fmt"
	"sort"
	"sync"

	"github.com/medly/scheduleconsole/internal/domain/entities"
)

// Modifiers are the keyboard modifiers held during a click
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Meta  bool `json:"meta"`
	Shift bool `json:"shift"`
}

// Scope is a single hospital, department or doctor selection
type Scope struct {
	Kind entities.ScopeKind `json:"kind"`
	ID   int64              `json:"id"`
	Name string             `json:"name"`
}

// DoctorRef locates a clicked doctor row. Index is the row's position in
// its department; ScopeName is "Hospital • Department • Doctor".
type DoctorRef struct {
	DoctorID     int64  `json:"doctorId"`
	DepartmentID int64  `json:"departmentId"`
	Index        int    `json:"index"`
	ScopeName    string `json:"scopeName"`
}

type anchor struct {
	departmentID int64
	doctorID     int64
	index        int
}

// Target is the resolved bulk-edit target. Exactly one of Scope and
// DoctorIDs is set.
type Target struct {
	Scope     *Scope  `json:"scope,omitempty"`
	DoctorIDs []int64 `json:"doctorIds,omitempty"`
}

// Empty reports whether nothing is selected
func (t Target) Empty() bool {
	return t.Scope == nil && len(t.DoctorIDs) == 0
}

// Multi reports whether the target fans out to several doctors
func (t Target) Multi() bool {
	return len(t.DoctorIDs) > 1
}

// Label is the action bar caption for the target
func (t Target) Label() string {
	switch {
	case t.Multi():
		return fmt.Sprintf("%d doctors", len(t.DoctorIDs))
	case t.Scope != nil:
		return t.Scope.Name
	}
	return ""
}

// SelectionSnapshot is an immutable copy of a SelectionModel
type SelectionSnapshot struct {
	Scope     *Scope  `json:"scope,omitempty"`
	DoctorIDs []int64 `json:"doctorIds"`
	AnchorID  *int64  `json:"anchorDoctorId,omitempty"`
	Target    Target  `json:"target"`
}

// Contains reports whether doctorID is in the multi-select set
func (s SelectionSnapshot) Contains(doctorID int64) bool {
	for _, id := range s.DoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}

// Matches reports whether the single scope is exactly kind/id
func (s SelectionSnapshot) Matches(kind entities.ScopeKind, id int64) bool {
	return s.Scope != nil && s.Scope.Kind == kind && s.Scope.ID == id
}

// SelectionModel tracks the bulk-edit target of one console view. It is
// owned by that view and never shared.
type SelectionModel struct {
	mu     sync.RWMutex
	scope  *Scope
	multi  []int64
	anchor *anchor
}

func NewSelectionModel() *SelectionModel {
	return &SelectionModel{}
}

// Click applies a doctor-label click. departmentDoctors is the ordered list
// of doctor ids in the clicked doctor's department, used by shift ranges.
func (m *SelectionModel) Click(ref DoctorRef, mods Modifiers, departmentDoctors []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case mods.Shift && m.anchor != nil && m.anchor.departmentID == ref.DepartmentID:
		lo, hi := m.anchor.index, ref.Index
		if lo > hi {
			lo, hi = hi, lo
		}
		lo = maxInt(lo, 0)
		hi = minInt(hi, len(departmentDoctors)-1)
		var ids []int64
		for i := lo; i <= hi; i++ {
			ids = append(ids, departmentDoctors[i])
		}
		m.multi = ids
	case mods.Ctrl || mods.Meta:
		m.anchor = &anchor{departmentID: ref.DepartmentID, doctorID: ref.DoctorID, index: ref.Index}
		if idx := indexOf(m.multi, ref.DoctorID); idx >= 0 {
			m.multi = append(m.multi[:idx:idx], m.multi[idx+1:]...)
			// the removed doctor never keeps the scope
			if len(m.multi) == 0 || (m.scope != nil && m.scope.Kind == entities.ScopeKindDoctor && m.scope.ID == ref.DoctorID) {
				m.scope = nil
			}
			return
		}
		m.multi = append(m.multi, ref.DoctorID)
	default:
		m.multi = []int64{ref.DoctorID}
		m.anchor = &anchor{departmentID: ref.DepartmentID, doctorID: ref.DoctorID, index: ref.Index}
	}

	m.scope = &Scope{Kind: entities.ScopeKindDoctor, ID: ref.DoctorID, Name: ref.ScopeName}
}

// SelectScope sets a single hospital/department/doctor scope and clears the
// multi-select set. Selecting the current scope again deselects it.
func (m *SelectionModel) SelectScope(scope Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.multi = nil
	if m.scope != nil && m.scope.Kind == scope.Kind && m.scope.ID == scope.ID {
		m.scope = nil
		return
	}
	s := scope
	m.scope = &s
}

// SelectSpanOwner makes a drag-selected row the only selection
func (m *SelectionModel) SelectSpanOwner(ref DoctorRef) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.multi = []int64{ref.DoctorID}
	m.scope = &Scope{Kind: entities.ScopeKindDoctor, ID: ref.DoctorID, Name: ref.ScopeName}
}

// Clear drops every selection, including the anchor
func (m *SelectionModel) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scope, m.multi, m.anchor = nil, nil, nil
}

// Prune removes doctors that no longer exist in the current snapshot
func (m *SelectionModel) Prune(exists func(doctorID int64) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.multi[:0:0]
	for _, id := range m.multi {
		if exists(id) {
			kept = append(kept, id)
		}
	}
	m.multi = kept
	if m.anchor != nil && !exists(m.anchor.doctorID) {
		m.anchor = nil
	}
	if m.scope != nil && m.scope.Kind == entities.ScopeKindDoctor && !exists(m.scope.ID) {
		m.scope = nil
	}
}

// Target returns the active bulk-edit target. A non-empty multi-select set
// takes precedence; a set of one doctor is that doctor's scope.
func (m *SelectionModel) Target() Target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.targetLocked()
}

func (m *SelectionModel) targetLocked() Target {
	switch {
	case len(m.multi) > 1:
		return Target{DoctorIDs: sortedCopy(m.multi)}
	case len(m.multi) == 1:
		if m.scope != nil && m.scope.Kind == entities.ScopeKindDoctor && m.scope.ID == m.multi[0] {
			s := *m.scope
			return Target{Scope: &s}
		}
		return Target{Scope: &Scope{Kind: entities.ScopeKindDoctor, ID: m.multi[0]}}
	case m.scope != nil:
		s := *m.scope
		return Target{Scope: &s}
	}
	return Target{}
}

// Snapshot copies the current state
func (m *SelectionModel) Snapshot() SelectionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := SelectionSnapshot{
		DoctorIDs: append([]int64{}, m.multi...),
		Target:    m.targetLocked(),
	}
	if m.scope != nil {
		s := *m.scope
		snap.Scope = &s
	}
	if m.anchor != nil {
		id := m.anchor.doctorID
		snap.AnchorID = &id
	}
	return snap
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func sortedCopy(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
