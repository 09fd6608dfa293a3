package dataapi

import (
	"bytes"
	"fmt"
)

// CommandTag names one of the recognized top-level command envelope keys,
// per §6.
type CommandTag string

const (
	CmdCreateCollection    CommandTag = "createCollection"
	CmdDeleteCollection    CommandTag = "deleteCollection"
	CmdFindCollections     CommandTag = "findCollections"
	CmdInsertOne           CommandTag = "insertOne"
	CmdInsertMany          CommandTag = "insertMany"
	CmdFindOne             CommandTag = "findOne"
	CmdFind                CommandTag = "find"
	CmdFindOneAndUpdate    CommandTag = "findOneAndUpdate"
	CmdFindOneAndDelete    CommandTag = "findOneAndDelete"
	CmdUpdateOne           CommandTag = "updateOne"
	CmdUpdateMany          CommandTag = "updateMany"
	CmdDeleteOne           CommandTag = "deleteOne"
	CmdDeleteMany          CommandTag = "deleteMany"
	CmdCountDocuments      CommandTag = "countDocuments"
)

var knownCommandTags = map[CommandTag]bool{
	CmdCreateCollection: true, CmdDeleteCollection: true, CmdFindCollections: true,
	CmdInsertOne: true, CmdInsertMany: true, CmdFindOne: true, CmdFind: true,
	CmdFindOneAndUpdate: true, CmdFindOneAndDelete: true, CmdUpdateOne: true,
	CmdUpdateMany: true, CmdDeleteOne: true, CmdDeleteMany: true, CmdCountDocuments: true,
}

// Command is a JSON command envelope resolved into its tag and parameters.
type Command struct {
	Tag    CommandTag
	Params *Value
}

// resolverError is raised when a command envelope names an unrecognized
// tag, mirroring the polymorphic-deserialization failure of a Jackson
// @JsonTypeInfo resolver in the original system.
type resolverError struct {
	msg string
}

func (e *resolverError) Error() string           { return e.msg }
func (e *resolverError) ExceptionClass() string   { return "InvalidTypeIdException" }

// ParseCommandEnvelope parses raw JSON bytes into a Command. Malformed JSON
// surfaces as a jsonParseError (exceptionClass=JsonParseException, per §6);
// an empty body or a body with anything but exactly one top-level key
// surfaces as a ValidationError (exceptionClass=ConstraintViolationException).
func ParseCommandEnvelope(raw []byte) (*Command, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, newValidationError("request body must be a JSON object with exactly one command field")
	}
	v, err := ParseJSON(raw)
	if err != nil {
		return nil, &jsonParseError{msg: err.Error()}
	}
	return ResolveCommand(v)
}

type jsonParseError struct{ msg string }

func (e *jsonParseError) Error() string         { return e.msg }
func (e *jsonParseError) ExceptionClass() string { return "JsonParseException" }

// ResolveCommand turns a parsed envelope value into a Command.
func ResolveCommand(envelope *Value) (*Command, error) {
	if envelope == nil || !envelope.IsObject() || envelope.Object().Len() == 0 {
		return nil, newValidationError("request body must be a JSON object with exactly one command field")
	}
	if envelope.Object().Len() != 1 {
		return nil, newValidationError("request body must name exactly one command")
	}
	tag := CommandTag(envelope.Object().Keys()[0])
	if !knownCommandTags[tag] {
		return nil, &resolverError{msg: fmt.Sprintf("Could not resolve type id '%s' as a known command", tag)}
	}
	return &Command{Tag: tag, Params: envelope.Object().Get(string(tag))}, nil
}

// CommandContext is the (namespace, collection?) pair a command executes
// against, derived from the request path per §6.
type CommandContext struct {
	Namespace  string
	Collection string
}

// CommandError is one entry of a CommandResult's errors array.
type CommandError struct {
	Message        string `json:"message"`
	ErrorCode      string `json:"errorCode,omitempty"`
	ExceptionClass string `json:"exceptionClass"`
}

// CommandResult is the uniform response envelope of §4.7/§6: always
// serialized with HTTP 200, carrying any subset of data/status/errors.
type CommandResult struct {
	Data   *Value
	Status *Value
	Errors []CommandError
}

func errorResult(err error) *CommandResult {
	return &CommandResult{Errors: []CommandError{toCommandError(err)}}
}

func toCommandError(err error) CommandError {
	switch e := err.(type) {
	case *APIError:
		return CommandError{Message: e.Error(), ErrorCode: string(e.Code), ExceptionClass: e.ExceptionClass()}
	case *ValidationError:
		return CommandError{Message: e.Msg, ExceptionClass: e.ExceptionClass()}
	case *resolverError:
		return CommandError{Message: e.msg, ExceptionClass: e.ExceptionClass()}
	case *jsonParseError:
		return CommandError{Message: e.msg, ExceptionClass: e.ExceptionClass()}
	default:
		apiErr := AsAPIError(err)
		return CommandError{Message: apiErr.Error(), ErrorCode: string(apiErr.Code), ExceptionClass: apiErr.ExceptionClass()}
	}
}

// MarshalEnvelope renders the result as the JSON body clients see.
func (r *CommandResult) MarshalEnvelope() []byte {
	obj := NewObject()
	if r.Data != nil {
		obj.Set("data", r.Data)
	}
	if r.Status != nil {
		obj.Set("status", r.Status)
	}
	if len(r.Errors) > 0 {
		items := make([]*Value, len(r.Errors))
		for i, e := range r.Errors {
			eo := NewObject()
			eo.Set("message", Str(e.Message))
			if e.ErrorCode != "" {
				eo.Set("errorCode", Str(e.ErrorCode))
			}
			eo.Set("exceptionClass", Str(e.ExceptionClass))
			items[i] = ObjectValue(eo)
		}
		obj.Set("errors", ArrayValue(items))
	}
	return Marshal(ObjectValue(obj))
}

func statusOK() *Value {
	o := NewObject()
	o.Set("ok", NumberFromInt64(1))
	return ObjectValue(o)
}
