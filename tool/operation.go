// Package tool exposes the form operations as discrete callable wrappers
// returning uniform result records. The fixed Operation enumeration is also
// the capability surface offered to the agent dispatcher.
package tool

// Operation names one callable form operation.
type Operation string

const (
	OpCreateForm        Operation = "create_form"
	OpUpdateForm        Operation = "update_form"
	OpAddQuestions      Operation = "add_questions"
	OpUpdateQuestions   Operation = "update_questions"
	OpDeleteQuestions   Operation = "delete_questions"
	OpConfigureSettings Operation = "configure_settings"
	OpGetFormInfo       Operation = "get_form_info"
	OpGetResponses      Operation = "get_responses"
	OpDeleteForm        Operation = "delete_form"
	OpListForms         Operation = "list_forms"
	OpShareForm         Operation = "share_form"
	OpUnshareForm       Operation = "unshare_form"
	OpCreateFolder      Operation = "create_folder"
	OpMoveForm          Operation = "move_form"
	OpValidateQuestions Operation = "validate_questions"
)

// Operations returns every operation the toolset can dispatch.
func Operations() []Operation {
	return []Operation{
		OpCreateForm,
		OpUpdateForm,
		OpAddQuestions,
		OpUpdateQuestions,
		OpDeleteQuestions,
		OpConfigureSettings,
		OpGetFormInfo,
		OpGetResponses,
		OpDeleteForm,
		OpListForms,
		OpShareForm,
		OpUnshareForm,
		OpCreateFolder,
		OpMoveForm,
		OpValidateQuestions,
	}
}

// Known reports whether op is part of the dispatchable surface.
func (op Operation) Known() bool {
	for _, known := range Operations() {
		if op == known {
			return true
		}
	}
	return false
}

// Mutating reports whether the operation writes to the external service.
// Read-only operations bypass the session cache invalidation.
func (op Operation) Mutating() bool {
	switch op {
	case OpGetFormInfo, OpGetResponses, OpListForms, OpValidateQuestions:
		return false
	}
	return true
}
