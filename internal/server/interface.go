/*
Package server implements msgpack IPC for tag suggestion.

Clients write msgpack maps to stdin and read msgpack maps from stdout, one
response per request, in order. On start the server writes:

	{"status": "ready"}

Suggestion requests carry an ID, the query and optional limits:

	{"id": "req_001", "q": "running shoes", "n": 5, "k": 30}

and are answered with tags in rank order plus the time taken in microseconds:

	{"id": "req_001", "s": [{"w": "trail running shoes", "r": 1.42}], "c": 1, "t": 830}

Other actions are selected with "a":

	{"id": "add_001", "a": "add", "text": "trail boots", "src": "crm-17", "pop": 3}
	{"id": "st_001", "a": "stats"}
	{"id": "hc_001", "a": "health"}

Failed requests are answered with an error message and an HTTP-like code:

	{"id": "req_002", "e": "missing query", "c": 400}

A read-only server answers add requests with code 403.
*/
package server

// Actions understood by the server. An empty action means ActionSuggest.
const (
	ActionSuggest = "suggest"
	ActionAdd     = "add"
	ActionStats   = "stats"
	ActionHealth  = "health"
)

// Request is any incoming message.
type Request struct {
	ID         string   `msgpack:"id"`
	Action     string   `msgpack:"a,omitempty"`
	Query      string   `msgpack:"q,omitempty"`
	Limit      int      `msgpack:"n,omitempty"`
	Pool       int      `msgpack:"k,omitempty"`
	Text       string   `msgpack:"text,omitempty"`
	Source     string   `msgpack:"src,omitempty"`
	Popularity *float64 `msgpack:"pop,omitempty"`
}

// TagSuggestion is one suggested tag and its ranking score.
type TagSuggestion struct {
	Tag   string  `msgpack:"w"`
	Score float64 `msgpack:"r"`
}

// SuggestResponse answers a suggestion request.
type SuggestResponse struct {
	ID          string          `msgpack:"id"`
	Suggestions []TagSuggestion `msgpack:"s"`
	Count       int             `msgpack:"c"`
	TimeTaken   int64           `msgpack:"t"`
}

// AddResponse answers an add request.
type AddResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Slot   int    `msgpack:"slot"`
}

// StatsResponse answers a stats request.
type StatsResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Count  int    `msgpack:"count"`
	Dim    int    `msgpack:"dim"`
	Model  string `msgpack:"model"`
}

// StatusResponse carries a bare status, used for ready and health.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
