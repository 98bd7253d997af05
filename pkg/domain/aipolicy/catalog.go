package aipolicy

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ActionKind classifies what an action does to the system.
type ActionKind string

const (
	// KindRead covers read/explain actions that mutate nothing.
	KindRead ActionKind = "read"
	// KindRecommend covers unsolicited recommendation objects (no mutation).
	KindRecommend ActionKind = "recommend"
	// KindMutate covers actions that change governed state.
	KindMutate ActionKind = "mutate"
)

// ActionSpec describes one proposable action type: its classification, the
// minimum autonomy level required to propose it, and the JSON schema its
// payload must satisfy.
type ActionSpec struct {
	Type          string
	Kind          ActionKind
	RequiredLevel Level
	PayloadSchema string
}

// IsMutating returns true when the action changes governed state.
func (s ActionSpec) IsMutating() bool {
	return s.Kind == KindMutate
}

// catalog is the closed set of action types AI agents may propose. Payload
// schemas keep malformed proposals out before policy evaluation even runs.
var catalog = map[string]ActionSpec{
	"explain_schedule": {
		Type:          "explain_schedule",
		Kind:          KindRead,
		RequiredLevel: LevelAdvisory,
		PayloadSchema: `{"type":"object","properties":{"initiative_id":{"type":"string"}},"required":["initiative_id"]}`,
	},
	"summarize_portfolio": {
		Type:          "summarize_portfolio",
		Kind:          KindRead,
		RequiredLevel: LevelAdvisory,
		PayloadSchema: `{"type":"object","properties":{"project_id":{"type":"string"}},"required":["project_id"]}`,
	},
	"recommend_priorities": {
		Type:          "recommend_priorities",
		Kind:          KindRecommend,
		RequiredLevel: LevelProactive,
		PayloadSchema: `{"type":"object","properties":{"project_id":{"type":"string"}},"required":["project_id"]}`,
	},
	"create_task": {
		Type:          "create_task",
		Kind:          KindMutate,
		RequiredLevel: LevelAssisted,
		PayloadSchema: `{"type":"object","properties":{"initiative_id":{"type":"string"},"title":{"type":"string","minLength":1},"priority":{"type":"string","enum":["low","medium","high","urgent"]}},"required":["initiative_id","title"]}`,
	},
	"update_task_status": {
		Type:          "update_task_status",
		Kind:          KindMutate,
		RequiredLevel: LevelAssisted,
		PayloadSchema: `{"type":"object","properties":{"task_id":{"type":"string"},"status":{"type":"string"},"blocked_reason":{"type":"string"},"blocker_type":{"type":"string"}},"required":["task_id","status"]}`,
	},
	"update_task_progress": {
		Type:          "update_task_progress",
		Kind:          KindMutate,
		RequiredLevel: LevelAssisted,
		PayloadSchema: `{"type":"object","properties":{"task_id":{"type":"string"},"progress":{"type":"integer","minimum":0,"maximum":100}},"required":["task_id","progress"]}`,
	},
	"update_initiative_status": {
		Type:          "update_initiative_status",
		Kind:          KindMutate,
		RequiredLevel: LevelAssisted,
		PayloadSchema: `{"type":"object","properties":{"initiative_id":{"type":"string"},"status":{"type":"string"},"blocked_reason":{"type":"string"}},"required":["initiative_id","status"]}`,
	},
	"add_dependency": {
		Type:          "add_dependency",
		Kind:          KindMutate,
		RequiredLevel: LevelAssisted,
		PayloadSchema: `{"type":"object","properties":{"from_id":{"type":"string"},"to_id":{"type":"string"},"type":{"type":"string","enum":["finish_to_start","soft"]}},"required":["from_id","to_id","type"]}`,
	},
}

var (
	schemaOnce  sync.Once
	schemaCache map[string]*gojsonschema.Schema
	schemaErr   error
)

func compiledSchemas() (map[string]*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schemaCache = make(map[string]*gojsonschema.Schema, len(catalog))
		for name, spec := range catalog {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(spec.PayloadSchema))
			if err != nil {
				schemaErr = fmt.Errorf("compile schema for %s: %w", name, err)
				return
			}
			schemaCache[name] = schema
		}
	})
	return schemaCache, schemaErr
}

// LookupAction returns the spec for an action type.
func LookupAction(actionType string) (ActionSpec, bool) {
	spec, ok := catalog[actionType]
	return spec, ok
}

// AllActionTypes returns the names of all proposable action types.
func AllActionTypes() []string {
	types := make([]string, 0, len(catalog))
	for name := range catalog {
		types = append(types, name)
	}
	return types
}

// ValidatePayload checks an action payload against its type's JSON schema.
func ValidatePayload(actionType string, payload []byte) error {
	spec, ok := LookupAction(actionType)
	if !ok {
		return fmt.Errorf("unknown action type: %s", actionType)
	}
	schemas, err := compiledSchemas()
	if err != nil {
		return err
	}
	result, err := schemas[spec.Type].Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validate payload for %s: %w", actionType, err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid payload for %s: %s", actionType, errs[0].String())
		}
		return fmt.Errorf("invalid payload for %s", actionType)
	}
	return nil
}
