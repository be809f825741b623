package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// ActionDecoder builds an action from its JSON payload.
type ActionDecoder func(payload json.RawMessage) (Action, error)

var (
	actionRegistry   = make(map[string]ActionDecoder)
	actionRegistryMu sync.RWMutex
)

// RegisterAction adds a named action decoder to the registry.
// Panics if an action with the same name is already registered.
func RegisterAction(name string, decode ActionDecoder) {
	actionRegistryMu.Lock()
	defer actionRegistryMu.Unlock()

	if _, exists := actionRegistry[name]; exists {
		panic(fmt.Sprintf("action already registered: %s", name))
	}
	actionRegistry[name] = decode
}

// DecodeAction looks up name and decodes payload into its action.
// Returns ErrUnknownAction for unregistered names.
func DecodeAction(name string, payload json.RawMessage) (Action, error) {
	actionRegistryMu.RLock()
	decode, ok := actionRegistry[name]
	actionRegistryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	a, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrInvalidPayload, name, err)
	}
	return a, nil
}

// ActionNames returns every registered action name, sorted.
func ActionNames() []string {
	actionRegistryMu.RLock()
	defer actionRegistryMu.RUnlock()

	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeInto returns a decoder that unmarshals the payload into a fresh T.
// An empty payload decodes to the zero T.
func decodeInto[T Action]() ActionDecoder {
	return func(payload json.RawMessage) (Action, error) {
		var a T
		if len(bytes.TrimSpace(payload)) == 0 {
			return a, nil
		}
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// decodeSortSpec accepts a bare SortSpec, {"sort": {...}}, or null to clear.
func decodeSortSpec(payload json.RawMessage) (Action, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return SetSortSpec{}, nil
	}
	var wrapped SetSortSpec
	if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Spec != nil {
		return wrapped, nil
	}
	var spec SortSpec
	if err := json.Unmarshal(trimmed, &spec); err != nil {
		return nil, err
	}
	if spec.Field == "" {
		return SetSortSpec{}, nil
	}
	return SetSortSpec{Spec: &spec}, nil
}

func init() {
	RegisterAction(ReplaceAllData{}.Name(), decodeInto[ReplaceAllData]())
	RegisterAction(AddRow{}.Name(), decodeInto[AddRow]())
	RegisterAction(UpdateRow{}.Name(), decodeInto[UpdateRow]())
	RegisterAction(DeleteRow{}.Name(), decodeInto[DeleteRow]())
	RegisterAction(SetColumns{}.Name(), decodeInto[SetColumns]())
	RegisterAction(AddColumn{}.Name(), decodeInto[AddColumn]())
	RegisterAction(ToggleColumnVisibility{}.Name(), decodeInto[ToggleColumnVisibility]())
	RegisterAction(SetSearchQuery{}.Name(), decodeInto[SetSearchQuery]())
	RegisterAction(SetSortSpec{}.Name(), decodeSortSpec)
	RegisterAction(SetPage{}.Name(), decodeInto[SetPage]())
	RegisterAction(SetPageSize{}.Name(), decodeInto[SetPageSize]())
	RegisterAction(StartEditing{}.Name(), decodeInto[StartEditing]())
	RegisterAction(UpdateEditingDraft{}.Name(), decodeInto[UpdateEditingDraft]())
	RegisterAction(SaveEditingRow{}.Name(), decodeInto[SaveEditingRow]())
	RegisterAction(CancelEditing{}.Name(), decodeInto[CancelEditing]())
	RegisterAction(SaveAllEditing{}.Name(), decodeInto[SaveAllEditing]())
	RegisterAction(CancelAllEditing{}.Name(), decodeInto[CancelAllEditing]())
	RegisterAction(ToggleTheme{}.Name(), decodeInto[ToggleTheme]())
}
