package dataapi

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Pipeline dispatches command envelopes to their operation, per §4.7: it
// never returns an error itself — every failure is folded into the
// returned CommandResult's errors array, so the HTTP-layer collaborator
// can always respond 200.
type Pipeline struct {
	Log      *slog.Logger
	Sessions *SessionCache
	Config   Config
}

func NewPipeline(sessions *SessionCache, cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{Log: log, Sessions: sessions, Config: cfg}
}

// Handle parses raw JSON, resolves it to a Command, executes it against
// the tenant's session, and shapes a CommandResult.
func (p *Pipeline) Handle(ctx context.Context, tenant string, cctx CommandContext, raw []byte) *CommandResult {
	start := time.Now()
	cmd, err := ParseCommandEnvelope(raw)
	if err != nil {
		p.logOutcome(cctx, "", start, err)
		return errorResult(err)
	}

	session, serr := p.Sessions.Get(tenant)
	if serr != nil {
		p.logOutcome(cctx, cmd.Tag, start, serr)
		return errorResult(wrapAPIError(ErrInternalServer, serr, "could not acquire store session"))
	}

	env := &ExecEnv{
		Ctx:         ctx,
		Store:       session.Store,
		Budget:      session.Budget,
		SchemaCache: session.SchemaCache,
		Config:      p.Config,
		Cmd:         cctx,
	}

	result, execErr := p.execute(env, cmd)
	if execErr == nil && ctx.Err() != nil {
		execErr = ctxError(ctx.Err())
	}
	if execErr != nil {
		if errors.Is(execErr, context.DeadlineExceeded) {
			execErr = ctxError(execErr)
		}
		p.logOutcome(cctx, cmd.Tag, start, execErr)
		return errorResult(execErr)
	}
	p.logOutcome(cctx, cmd.Tag, start, nil)
	return result
}

func (p *Pipeline) execute(env *ExecEnv, cmd *Command) (*CommandResult, error) {
	switch cmd.Tag {
	case CmdCreateCollection:
		return ExecCreateCollection(env, cmd.Params)
	case CmdDeleteCollection:
		return ExecDeleteCollection(env, cmd.Params)
	case CmdFindCollections:
		return ExecFindCollections(env, cmd.Params)
	case CmdInsertOne:
		return ExecInsertOne(env, cmd.Params)
	case CmdInsertMany:
		return ExecInsertMany(env, cmd.Params)
	case CmdFindOne:
		return ExecFindOne(env, cmd.Params)
	case CmdFind:
		return ExecFind(env, cmd.Params)
	case CmdUpdateOne:
		return ExecUpdateOne(env, cmd.Params, false)
	case CmdFindOneAndUpdate:
		return ExecUpdateOne(env, cmd.Params, true)
	case CmdUpdateMany:
		return ExecUpdateMany(env, cmd.Params)
	case CmdDeleteOne:
		return ExecDeleteOne(env, cmd.Params, false)
	case CmdFindOneAndDelete:
		return ExecDeleteOne(env, cmd.Params, true)
	case CmdDeleteMany:
		return ExecDeleteMany(env, cmd.Params)
	case CmdCountDocuments:
		return ExecCountDocuments(env, cmd.Params)
	default:
		return nil, &resolverError{msg: "Could not resolve type id '" + string(cmd.Tag) + "'"}
	}
}

func ctxError(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newAPIError(ErrRequestTimeout, "%v", err)
	}
	return wrapAPIError(ErrInternalServer, err, "request context error")
}

func (p *Pipeline) logOutcome(cctx CommandContext, tag CommandTag, start time.Time, err error) {
	attrs := []any{
		slog.String("namespace", cctx.Namespace),
		slog.String("collection", cctx.Collection),
		slog.String("command", string(tag)),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		p.Log.Error("command failed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	p.Log.Info("command ok", attrs...)
}
