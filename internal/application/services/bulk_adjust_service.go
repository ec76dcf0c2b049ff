package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/medly/scheduleconsole/internal/domain/entities"
	"github.com/medly/scheduleconsole/internal/domain/providers"
	"github.com/medly/scheduleconsole/internal/grid"
	"github.com/medly/scheduleconsole/internal/infrastructure/observability"
	apperrors "github.com/medly/scheduleconsole/pkg/errors"
)

// bulkFanOutLimit bounds concurrent per-doctor requests
const bulkFanOutLimit = 8

var (
	defaultAvailableRule = entities.Rule{Start: "08:00", End: "17:00"}
	addedRule            = entities.Rule{Start: "08:00", End: "12:00"}
)

// DefaultAddedRule is the rule a newly added form row starts with
func DefaultAddedRule() entities.Rule {
	return addedRule
}

// BulkAdjustForm is the state of the bulk-adjust dialog. A prefilled form
// comes from a drag-selected span: its dates are locked to the span's day
// and it carries a single rule of LockedKind.
type BulkAdjustForm struct {
	Target     grid.Target         `json:"target"`
	DateStart  string              `json:"dateStart"`
	DateEnd    string              `json:"dateEnd"`
	Available  []entities.Rule     `json:"available"`
	OOO        []entities.Rule     `json:"ooo"`
	Overwrite  bool                `json:"overwrite"`
	Prefilled  bool                `json:"prefilled"`
	LockedKind entities.WindowKind `json:"lockedKind,omitempty"`
}

// DefaultForm opens the dialog for target on day
func DefaultForm(target grid.Target, day string) BulkAdjustForm {
	return BulkAdjustForm{
		Target:    target,
		DateStart: day,
		DateEnd:   day,
		Available: []entities.Rule{defaultAvailableRule},
		OOO:       []entities.Rule{},
		Overwrite: true,
	}
}

// PrefillForm opens the dialog from a drag-selected span
func PrefillForm(target grid.Target, span grid.SelectedSpan, kind entities.WindowKind) BulkAdjustForm {
	if !kind.Valid() {
		kind = entities.WindowKindAvailable
	}
	rule := entities.Rule{Start: grid.QuarterClock(span.Span.Start), End: grid.RuleClock(span.Span.End())}
	form := BulkAdjustForm{
		Target:     target,
		DateStart:  span.Day,
		DateEnd:    span.Day,
		Available:  []entities.Rule{},
		OOO:        []entities.Rule{},
		Overwrite:  true,
		Prefilled:  true,
		LockedKind: kind,
	}
	if kind == entities.WindowKindOutOfOffice {
		form.OOO = []entities.Rule{rule}
	} else {
		form.Available = []entities.Rule{rule}
	}
	return form
}

// Validate checks the form without contacting the backend
func (f BulkAdjustForm) Validate() error {
	if f.Target.Empty() {
		return apperrors.NewValidationError("select a hospital, department or doctor first")
	}
	if f.Target.Scope != nil && !f.Target.Scope.Kind.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("invalid scope kind %q", f.Target.Scope.Kind))
	}
	start, err := entities.ParseDay(f.DateStart)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	end, err := entities.ParseDay(f.DateEnd)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if end.Before(start.Time) {
		return apperrors.NewValidationError("end date is before start date")
	}

	if f.Prefilled {
		if f.DateStart != f.DateEnd {
			return apperrors.NewValidationError("a selected span covers a single day")
		}
		locked, other := f.Available, f.OOO
		if f.LockedKind == entities.WindowKindOutOfOffice {
			locked, other = f.OOO, f.Available
		}
		if len(locked) != 1 || len(other) != 0 {
			return apperrors.NewValidationError("a selected span carries exactly one rule")
		}
	}

	for _, rules := range [][]entities.Rule{f.Available, f.OOO} {
		for _, r := range rules {
			if err := validateRule(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateRule(r entities.Rule) error {
	start, err := grid.ParseClock(r.Start)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	end, err := grid.ParseClock(r.End)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if end <= start {
		return apperrors.NewValidationError(fmt.Sprintf("rule %s-%s ends before it starts", r.Start, r.End))
	}
	return nil
}

// DoctorOutcome is the result of one request of a multi-doctor submission
type DoctorOutcome struct {
	DoctorID int64                      `json:"doctorId"`
	Result   *entities.BulkAdjustResult `json:"result,omitempty"`
	Error    string                     `json:"error,omitempty"`
}

// BulkAdjustOutcome summarizes a submission. Partial failures of a
// multi-doctor submission are reported here, never rolled back.
type BulkAdjustOutcome struct {
	OK       bool                       `json:"ok"`
	Requests int                        `json:"requests"`
	Failed   int                        `json:"failed"`
	Message  string                     `json:"message,omitempty"`
	Result   *entities.BulkAdjustResult `json:"result,omitempty"`
	Doctors  []DoctorOutcome            `json:"doctors,omitempty"`
}

// BulkAdjustService submits bulk-adjust forms to the scheduling backend
type BulkAdjustService struct {
	backend providers.ScheduleBackend
	metrics *observability.Metrics
}

// NewBulkAdjustService creates a new bulk adjust service
func NewBulkAdjustService(backend providers.ScheduleBackend, metrics *observability.Metrics) *BulkAdjustService {
	return &BulkAdjustService{backend: backend, metrics: metrics}
}

// Submit validates and sends the form. A single scope is one request; a
// multi-doctor target is one concurrent request per doctor, each allowed to
// fail on its own.
func (s *BulkAdjustService) Submit(ctx context.Context, form BulkAdjustForm) (*BulkAdjustOutcome, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "bulk_adjust.submit")
	defer span.End()

	if form.Target.Multi() {
		return s.fanOut(ctx, form), nil
	}

	scope := form.Target.Scope
	if scope == nil {
		scope = &grid.Scope{Kind: entities.ScopeKindDoctor, ID: form.Target.DoctorIDs[0]}
	}
	res, err := s.backend.BulkAdjust(ctx, form.request(scope.Kind, scope.ID))
	observability.RecordWindowMutation(ctx, s.metrics, "bulk_adjust", err == nil)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("scope_kind", string(scope.Kind)).
			Int64("scope_id", scope.ID).
			Msg("bulk adjust failed")
		return nil, err
	}
	return &BulkAdjustOutcome{OK: true, Requests: 1, Result: res}, nil
}

// ClearDay removes every window of target on day
func (s *BulkAdjustService) ClearDay(ctx context.Context, target grid.Target, day string) (*BulkAdjustOutcome, error) {
	form := BulkAdjustForm{
		Target:    target,
		DateStart: day,
		DateEnd:   day,
		Available: []entities.Rule{},
		OOO:       []entities.Rule{},
		Overwrite: true,
	}
	return s.Submit(ctx, form)
}

func (s *BulkAdjustService) fanOut(ctx context.Context, form BulkAdjustForm) *BulkAdjustOutcome {
	ids := form.Target.DoctorIDs
	outcomes := make([]DoctorOutcome, len(ids))

	var (
		mu     sync.Mutex
		failed int
	)
	var g errgroup.Group
	g.SetLimit(bulkFanOutLimit)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.backend.BulkAdjust(ctx, form.request(entities.ScopeKindDoctor, id))
			observability.RecordWindowMutation(ctx, s.metrics, "bulk_adjust", err == nil)
			outcomes[i] = DoctorOutcome{DoctorID: id, Result: res}
			if err != nil {
				outcomes[i].Error = apperrors.UserMessage(err)
				mu.Lock()
				failed++
				mu.Unlock()
				observability.LoggerFromContext(ctx).Warn().Err(err).Int64("doctor_id", id).Msg("bulk adjust failed for doctor")
			}
			// failures are independent; never cancel the siblings
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkAdjustOutcome{
		OK:       failed == 0,
		Requests: len(ids),
		Failed:   failed,
		Doctors:  outcomes,
	}
	if failed > 0 {
		out.Message = fmt.Sprintf("%d of %d failed", failed, len(ids))
	}
	return out
}

func (f BulkAdjustForm) request(kind entities.ScopeKind, id int64) entities.BulkAdjustRequest {
	return entities.BulkAdjustRequest{
		ScopeKind: kind,
		ScopeID:   id,
		DateStart: f.DateStart,
		DateEnd:   f.DateEnd,
		Available: nonNilRules(f.Available),
		OOO:       nonNilRules(f.OOO),
		Overwrite: f.Overwrite,
	}
}

func nonNilRules(rules []entities.Rule) []entities.Rule {
	if rules == nil {
		return []entities.Rule{}
	}
	return rules
}
