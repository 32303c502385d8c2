package tree

import "github.com/vanderheijden86/treeview/pkg/meta"

// IsInputDisabled reports whether m's input exists and is disabled.
func IsInputDisabled(m *meta.Model) bool {
	return m != nil && m.State.Input != nil && m.State.Input.Disabled
}

// IsChecked reports whether m's checkbox is checked or its radio button is
// the current value of its group.
func (t *Tree) IsChecked(m *meta.Model) bool {
	if m == nil || m.Input == nil {
		return false
	}
	switch m.Input.Type {
	case meta.InputCheckbox:
		return m.State.Input != nil && m.State.Input.Value
	case meta.InputRadio:
		return m.IsRadioChecked(t.radios)
	}
	return false
}

// ActivateInput toggles m's checkbox or checks its radio button. It reports
// whether anything changed.
func (t *Tree) ActivateInput(m *meta.Model) bool {
	if m == nil || m.Input == nil || IsInputDisabled(m) {
		return false
	}
	switch m.Input.Type {
	case meta.InputCheckbox:
		return t.SetChecked(m, !t.IsChecked(m))
	case meta.InputRadio:
		return t.SetChecked(m, true)
	}
	return false
}

// SetChecked sets a checkbox value, or makes a radio button its group's
// value. Unchecking a radio button is not supported and reports false.
func (t *Tree) SetChecked(m *meta.Model, checked bool) bool {
	if m == nil || m.Input == nil || IsInputDisabled(m) {
		return false
	}
	switch m.Input.Type {
	case meta.InputCheckbox:
		if m.State.Input == nil {
			m.State.Input = &meta.InputState{}
		}
		if m.State.Input.Value == checked {
			return false
		}
		m.State.Input.Value = checked
		t.emit(Event{Kind: EventCheckboxChange, Node: m})
		return true
	case meta.InputRadio:
		if !checked || t.radios[m.Input.Name] == m.Input.Value {
			return false
		}
		t.radios[m.Input.Name] = m.Input.Value
		t.emit(Event{Kind: EventRadioChange, Node: m})
		return true
	}
	return false
}

// Click reports a click on m: m takes focus without moving input focus
// (the pointer already put it there) and its selection toggles.
func (t *Tree) Click(m *meta.Model) {
	if m == nil || t.Path(m) == nil {
		return
	}
	t.emit(Event{Kind: EventClick, Node: m})
	t.focus(m, true)
	t.ToggleSelected(m)
}

// DoubleClick reports a double click on m.
func (t *Tree) DoubleClick(m *meta.Model) {
	if m == nil || t.Path(m) == nil {
		return
	}
	t.emit(Event{Kind: EventDoubleClick, Node: m})
}
