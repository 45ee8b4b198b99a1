package qr

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Source tags the branch of the fallback chain that produced an identity.
// Downstream code matches on the tag instead of duck-typing fields.
type Source string

const (
	// SourceStructured means the payload was a JSON object carrying a
	// student id and passed schema validation.
	SourceStructured Source = "structured"
	// SourceURL means the id was extracted from a studentId= query fragment.
	SourceURL Source = "url"
	// SourceID means the whole payload was a bare student id.
	SourceID Source = "id"
	// SourceText means the payload was opaque and the identity is synthetic.
	SourceText Source = "text"
)

// Identity is the normalized result of resolving a scanned QR payload.
type Identity struct {
	StudentID    string `json:"student_id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	College      string `json:"college,omitempty"`
	Grade        string `json:"grade,omitempty"`
	Major        string `json:"major,omitempty"`
	Address      string `json:"address,omitempty"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
	Source       Source `json:"source"`
}

// LowConfidence reports whether the identity was synthesized from an opaque
// payload and needs supervisor confirmation before it may be recorded.
func (i Identity) LowConfidence() bool {
	return i.Source == SourceText
}

const opaquePrefixLen = 24

var bareIDPattern = regexp.MustCompile(`^(STU-\d+|\d+)$`)

// Resolver turns raw QR payloads into identities. It is a pure function over
// the input string and never fails; the lowest rung of the fallback chain
// always produces a synthetic identity.
type Resolver struct {
	schema    *jsonschema.Schema
	sanitizer *bluemonday.Policy
}

// NewResolver compiles the embedded payload schema and builds a resolver.
func NewResolver() *Resolver {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("qr-payload.schema.json", strings.NewReader(payloadSchema)); err != nil {
		panic(fmt.Sprintf("qr: invalid embedded schema resource: %v", err))
	}
	schema, err := compiler.Compile("qr-payload.schema.json")
	if err != nil {
		panic(fmt.Sprintf("qr: embedded schema does not compile: %v", err))
	}

	return &Resolver{
		schema:    schema,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Resolve walks the fallback chain: structured JSON, studentId= fragment,
// bare id, opaque text. First match wins.
func (r *Resolver) Resolve(raw string) Identity {
	trimmed := strings.TrimSpace(raw)

	if identity, ok := r.resolveStructured(trimmed); ok {
		return identity
	}
	if identity, ok := resolveURLFragment(trimmed); ok {
		return identity
	}
	if identity, ok := resolveBareID(trimmed); ok {
		return identity
	}

	return r.resolveOpaque(trimmed)
}

type structuredPayload struct {
	ID           string
	StudentID    string
	FullName     string
	Email        string
	PhoneNumber  string
	College      string
	Grade        string
	Major        string
	Address      string
	ProfilePhoto string
}

func (r *Resolver) resolveStructured(raw string) (Identity, bool) {
	if raw == "" || raw[0] != '{' {
		return Identity{}, false
	}

	var generic interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return Identity{}, false
	}
	if err := r.schema.Validate(generic); err != nil {
		return Identity{}, false
	}

	fields, _ := generic.(map[string]interface{})
	payload := structuredPayload{
		ID:           stringField(fields, "id"),
		StudentID:    stringField(fields, "studentId"),
		FullName:     stringField(fields, "fullName"),
		Email:        stringField(fields, "email"),
		PhoneNumber:  stringField(fields, "phoneNumber"),
		College:      stringField(fields, "college"),
		Grade:        stringField(fields, "grade"),
		Major:        stringField(fields, "major"),
		Address:      stringField(fields, "address"),
		ProfilePhoto: stringField(fields, "profilePhoto"),
	}

	studentID := payload.StudentID
	if studentID == "" {
		studentID = payload.ID
	}
	if studentID == "" {
		return Identity{}, false
	}

	name := strings.TrimSpace(payload.FullName)
	if name == "" {
		name = syntheticName(studentID)
	}

	return Identity{
		StudentID:    studentID,
		FullName:     name,
		Email:        payload.Email,
		PhoneNumber:  payload.PhoneNumber,
		College:      payload.College,
		Grade:        payload.Grade,
		Major:        payload.Major,
		Address:      payload.Address,
		ProfilePhoto: payload.ProfilePhoto,
		Source:       SourceStructured,
	}, true
}

func stringField(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	switch value := fields[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", value), "0"), ".")
	default:
		return ""
	}
}

func resolveURLFragment(raw string) (Identity, bool) {
	marker := strings.Index(raw, "studentId=")
	if marker < 0 {
		return Identity{}, false
	}

	fragment := raw[marker:]
	if question := strings.IndexByte(fragment, '?'); question >= 0 {
		fragment = fragment[:question]
	}

	values, err := url.ParseQuery(fragment)
	if err != nil {
		// Fall back to a manual cut; query fragments inside QR codes are
		// frequently not escaped correctly.
		value := strings.TrimPrefix(fragment, "studentId=")
		if amp := strings.IndexByte(value, '&'); amp >= 0 {
			value = value[:amp]
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return Identity{}, false
		}
		return Identity{StudentID: value, FullName: syntheticName(value), Source: SourceURL}, true
	}

	value := strings.TrimSpace(values.Get("studentId"))
	if value == "" {
		return Identity{}, false
	}

	return Identity{StudentID: value, FullName: syntheticName(value), Source: SourceURL}, true
}

func resolveBareID(raw string) (Identity, bool) {
	if !bareIDPattern.MatchString(raw) {
		return Identity{}, false
	}

	return Identity{StudentID: raw, FullName: syntheticName(raw), Source: SourceID}, true
}

func (r *Resolver) resolveOpaque(raw string) Identity {
	cleaned := raw

	// Binary payloads carry nothing a human could confirm; collapse them to a
	// placeholder before the prefix is used as an id.
	if cleaned != "" {
		detected := mimetype.Detect([]byte(cleaned))
		if !utf8.ValidString(cleaned) || (!detected.Is("text/plain") && !strings.HasPrefix(detected.String(), "text/")) {
			cleaned = ""
		}
	}

	cleaned = strings.TrimSpace(r.sanitizer.Sanitize(cleaned))
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	if cleaned == "" {
		cleaned = "unknown"
	}
	if len(cleaned) > opaquePrefixLen {
		cleaned = cleaned[:opaquePrefixLen]
	}

	return Identity{
		StudentID: cleaned,
		FullName:  syntheticName(cleaned),
		Source:    SourceText,
	}
}

func syntheticName(id string) string {
	return "Student " + id
}
