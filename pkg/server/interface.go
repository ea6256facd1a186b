/*
Package server exposes a suggestion controller to an editor over msgpack IPC.

The host writes a stream of msgpack maps to stdin and reads a stream of msgpack
maps from stdout. Logs go to stderr.

# Requests

Every request carries an id and an op. Document changes report the full text,
the cursor as a rune offset and the input kinds behind the update:

	{"id": "7", "op": "change", "text": "Hello ", "cur": 6, "ev": ["type"], "focus": true}

Other ops: predict (text, cur), accept, partial, cancel, accept_cmd, file (path,
tags), status and health.

# Replies

Each request gets exactly one reply with the same id, written after every
effect the request caused:

	{"id": "7", "ok": true, "state": "Queued", "ctx": "Text"}

Key ops also report whether the key was consumed, so the host knows whether to
run its default binding:

	{"id": "8", "ok": true, "consumed": true, "state": "Idle", "ctx": "Text"}

# Effects

Effects have no id and may arrive at any time, since predictions resolve in the
background:

	{"fx": "render", "text": "world"}
	{"fx": "insert", "text": "world"}
	{"fx": "clear"}
	{"fx": "notice", "text": "Completion failed: ..."}
	{"fx": "status", "text": "Suggesting [Text]"}

The first message after start is {"fx": "ready"}.
*/
package server

// Ops understood by the server.
const (
	OpChange    = "change"
	OpPredict   = "predict"
	OpAccept    = "accept"
	OpPartial   = "partial"
	OpCancel    = "cancel"
	OpAcceptCmd = "accept_cmd"
	OpFile      = "file"
	OpStatus    = "status"
	OpHealth    = "health"
)

// Effect kinds pushed to the host.
const (
	FxReady  = "ready"
	FxRender = "render"
	FxInsert = "insert"
	FxClear  = "clear"
	FxNotice = "notice"
	FxStatus = "status"
)

// Request is one message from the host.
type Request struct {
	ID        string   `msgpack:"id"`
	Op        string   `msgpack:"op"`
	Text      string   `msgpack:"text,omitempty"`
	Cursor    int      `msgpack:"cur,omitempty"`
	Events    []string `msgpack:"ev,omitempty"`
	Focus     bool     `msgpack:"focus,omitempty"`
	Selection bool     `msgpack:"sel,omitempty"`
	Multi     bool     `msgpack:"multi,omitempty"`
	Path      string   `msgpack:"path,omitempty"`
	Tags      []string `msgpack:"tags,omitempty"`
}

// Reply answers one Request.
type Reply struct {
	ID       string `msgpack:"id"`
	OK       bool   `msgpack:"ok"`
	Consumed bool   `msgpack:"consumed,omitempty"`
	State    string `msgpack:"state,omitempty"`
	Context  string `msgpack:"ctx,omitempty"`
	Status   string `msgpack:"status,omitempty"`
	Error    string `msgpack:"error,omitempty"`
}

// Effect is an unsolicited instruction for the host.
type Effect struct {
	Kind string `msgpack:"fx"`
	Text string `msgpack:"text,omitempty"`
}
