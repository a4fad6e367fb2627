package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Patch is a three-state field used for partial updates. The zero value
// means "not sent" and leaves the stored field untouched; Null clears the
// stored field; Set writes a value.
type Patch[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a patch that writes v.
func Set[T any](v T) Patch[T] {
	return Patch[T]{set: true, value: v}
}

// Null returns a patch that clears the field.
func Null[T any]() Patch[T] {
	return Patch[T]{set: true, null: true}
}

// FromPtr returns Null for a nil pointer and Set otherwise.
func FromPtr[T any](v *T) Patch[T] {
	if v == nil {
		return Null[T]()
	}
	return Set(*v)
}

// IsSet reports whether the field was sent at all.
func (p Patch[T]) IsSet() bool { return p.set }

// IsNull reports whether the field was sent as an explicit null.
func (p Patch[T]) IsNull() bool { return p.set && p.null }

// IsZero reports whether the patch was not sent. It lets omitzero skip it.
func (p Patch[T]) IsZero() bool { return !p.set }

// Value returns the value and whether one is present.
func (p Patch[T]) Value() (T, bool) {
	if !p.set || p.null {
		var zero T
		return zero, false
	}
	return p.value, true
}

// Ptr returns nil for null or unset patches and a pointer to the value
// otherwise.
func (p Patch[T]) Ptr() *T {
	v, ok := p.Value()
	if !ok {
		return nil
	}
	return &v
}

// MarshalJSON encodes null for explicit nulls and the value otherwise.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if !p.set || p.null {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON is only invoked for keys present in the document, so an
// absent key stays "not sent" while a literal null becomes Null.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Set(v)
	return nil
}

// TaskPatch lists the task fields that can be written partially.
type TaskPatch struct {
	Title             Patch[string]     `json:"title,omitzero"`
	Description       Patch[string]     `json:"description,omitzero"`
	Category          Patch[string]     `json:"category,omitzero"`
	Bugged            Patch[bool]       `json:"bugged,omitzero"`
	Status            Patch[TaskStatus] `json:"status,omitzero"`
	Order             Patch[float64]    `json:"order,omitzero"`
	Priority          Patch[Priority]   `json:"priority,omitzero"`
	FormulaStepID     Patch[string]     `json:"formula_step_id,omitzero"`
	DueAt             Patch[time.Time]  `json:"due_at,omitzero"`
	ReminderAt        Patch[time.Time]  `json:"reminder_at,omitzero"`
	ForwardedToTaskID Patch[string]     `json:"forwarded_to_task_id,omitzero"`
	ArchivedAt        Patch[time.Time]  `json:"archived_at,omitzero"`
	DeletedAt         Patch[time.Time]  `json:"deleted_at,omitzero"`
}

// Empty reports whether no field is set.
func (p TaskPatch) Empty() bool {
	return !p.Title.IsSet() && !p.Description.IsSet() && !p.Category.IsSet() &&
		!p.Bugged.IsSet() && !p.Status.IsSet() && !p.Order.IsSet() &&
		!p.Priority.IsSet() && !p.FormulaStepID.IsSet() && !p.DueAt.IsSet() &&
		!p.ReminderAt.IsSet() && !p.ForwardedToTaskID.IsSet() &&
		!p.ArchivedAt.IsSet() && !p.DeletedAt.IsSet()
}

// Apply writes every set field of p onto t.
func (p TaskPatch) Apply(t *Task) {
	if v, ok := p.Title.Value(); ok {
		t.Title = v
	}
	if v, ok := p.Description.Value(); ok {
		t.Description = v
	} else if p.Description.IsNull() {
		t.Description = ""
	}
	if v, ok := p.Category.Value(); ok {
		t.Category = v
	} else if p.Category.IsNull() {
		t.Category = ""
	}
	if v, ok := p.Bugged.Value(); ok {
		t.Bugged = v
	}
	if v, ok := p.Status.Value(); ok {
		t.Status = v
	}
	if v, ok := p.Order.Value(); ok {
		t.Order = v
	}
	if v, ok := p.Priority.Value(); ok {
		t.Priority = v
	} else if p.Priority.IsNull() {
		t.Priority = PriorityNone
	}
	if p.FormulaStepID.IsSet() {
		t.FormulaStepID = p.FormulaStepID.Ptr()
	}
	if p.DueAt.IsSet() {
		t.DueAt = p.DueAt.Ptr()
	}
	if p.ReminderAt.IsSet() {
		t.ReminderAt = p.ReminderAt.Ptr()
	}
	if p.ForwardedToTaskID.IsSet() {
		t.ForwardedToTaskID = p.ForwardedToTaskID.Ptr()
	}
	if p.ArchivedAt.IsSet() {
		t.ArchivedAt = p.ArchivedAt.Ptr()
	}
	if p.DeletedAt.IsSet() {
		t.DeletedAt = p.DeletedAt.Ptr()
	}
}
