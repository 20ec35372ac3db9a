package generator

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	defaultLegacyResponse   = "Edit plan generated successfully"
	defaultSemanticResponse = "Semantic edit plan generated successfully"

	crossModeReason = "AI returned legacy format with 0 actions when semantic format was expected. " +
		"The semantic document was provided but the model did not return 'ops'."
)

// ValidationError means a parsed reply broke the contract of its mode.
type ValidationError struct {
	Mode   Mode
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s response: %s: %v", e.Mode, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s response: %s", e.Mode, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ValidateSemantic requires a non-empty ops array, backfills response and
// replaces edit_plan with an empty plan.
func ValidateSemantic(raw json.RawMessage) (*GenerationResult, error) {
	ops := gjson.GetBytes(raw, "ops")
	if !ops.Exists() {
		if gjson.GetBytes(raw, "edit_plan").Exists() {
			if _, err := ValidateLegacy(raw, true); err != nil {
				return nil, err
			}
		}
		return nil, &ValidationError{Mode: ModeSemantic, Reason: "response is missing required 'ops' field"}
	}
	if !ops.IsArray() {
		return nil, &ValidationError{Mode: ModeSemantic, Reason: "'ops' must be an array"}
	}
	if len(ops.Array()) == 0 {
		return nil, &ValidationError{Mode: ModeSemantic, Reason: "'ops' is empty; at least one operation is required"}
	}

	raw, err := backfillResponse(raw, defaultSemanticResponse)
	if err != nil {
		return nil, &ValidationError{Mode: ModeSemantic, Reason: "backfill response", Err: err}
	}
	raw, err = sjson.SetRawBytes(raw, "edit_plan", []byte(`{"version":"`+EditPlanVersion+`","actions":[]}`))
	if err != nil {
		return nil, &ValidationError{Mode: ModeSemantic, Reason: "backfill edit_plan", Err: err}
	}
	return decodeResult(raw, ModeSemantic)
}

// ValidateLegacy requires an edit_plan object and backfills response,
// version, actions and ops. With expectSemantic set an empty plan is a
// cross-mode violation instead of an accepted no-op.
func ValidateLegacy(raw json.RawMessage, expectSemantic bool) (*GenerationResult, error) {
	plan := gjson.GetBytes(raw, "edit_plan")
	if !plan.Exists() {
		return nil, &ValidationError{Mode: ModeLegacy, Reason: "response is missing required 'edit_plan' field"}
	}
	if !plan.IsObject() {
		return nil, &ValidationError{Mode: ModeLegacy, Reason: "'edit_plan' must be an object"}
	}

	raw, err := backfillResponse(raw, defaultLegacyResponse)
	if err != nil {
		return nil, &ValidationError{Mode: ModeLegacy, Reason: "backfill response", Err: err}
	}
	switch v := plan.Get("version"); {
	case !v.Exists() || v.Type == gjson.Null:
		raw, err = sjson.SetBytes(raw, "edit_plan.version", EditPlanVersion)
	case v.Type != gjson.String:
		raw, err = sjson.SetBytes(raw, "edit_plan.version", v.String())
	}
	if err != nil {
		return nil, &ValidationError{Mode: ModeLegacy, Reason: "backfill version", Err: err}
	}
	actions := plan.Get("actions")
	switch {
	case !actions.Exists() || actions.Type == gjson.Null:
		if raw, err = sjson.SetRawBytes(raw, "edit_plan.actions", []byte("[]")); err != nil {
			return nil, &ValidationError{Mode: ModeLegacy, Reason: "backfill actions", Err: err}
		}
	case !actions.IsArray():
		return nil, &ValidationError{Mode: ModeLegacy, Reason: "'edit_plan.actions' must be an array"}
	}
	// ops is not part of the legacy contract; anything but an array reads as null
	if !gjson.GetBytes(raw, "ops").IsArray() {
		if raw, err = sjson.SetRawBytes(raw, "ops", []byte("null")); err != nil {
			return nil, &ValidationError{Mode: ModeLegacy, Reason: "backfill ops", Err: err}
		}
	}

	if expectSemantic && len(actions.Array()) == 0 {
		return nil, &ValidationError{Mode: ModeSemantic, Reason: crossModeReason}
	}
	return decodeResult(raw, ModeLegacy)
}

func backfillResponse(raw json.RawMessage, def string) (json.RawMessage, error) {
	r := gjson.GetBytes(raw, "response")
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return sjson.SetBytes(raw, "response", def)
	case r.Type != gjson.String:
		return sjson.SetBytes(raw, "response", r.String())
	}
	return raw, nil
}

func decodeResult(raw json.RawMessage, mode Mode) (*GenerationResult, error) {
	var res GenerationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, &ValidationError{Mode: mode, Reason: "response does not match the schema", Err: errors.WithStack(err)}
	}
	if res.EditPlan.Actions == nil {
		res.EditPlan.Actions = []Action{}
	}
	res.Mode = mode
	return &res, nil
}
