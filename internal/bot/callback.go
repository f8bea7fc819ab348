package bot

import "strings"

// Callback data format: "module$action$param1$param2...". Telegram caps
// callback data at 64 bytes, so params stay short (numeric IDs, order IDs).
const callbackSep = "$"

// Callback is a parsed inline-button payload.
type Callback struct {
	Module string
	Action string
	Params []string
}

// NewCallbackData joins a module, action and params into button payload form.
func NewCallbackData(module, action string, params ...string) string {
	parts := append([]string{module, action}, params...)
	return strings.Join(parts, callbackSep)
}

// ParseCallback splits button payload data. Returns ok=false for payloads
// that do not carry at least a module and an action.
func ParseCallback(data string) (Callback, bool) {
	parts := strings.Split(data, callbackSep)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Callback{}, false
	}
	return Callback{
		Module: parts[0],
		Action: parts[1],
		Params: parts[2:],
	}, true
}

// Param returns the i-th parameter or "" when absent.
func (c Callback) Param(i int) string {
	if i < len(c.Params) {
		return c.Params[i]
	}
	return ""
}
