package interp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinoai/cad-interpreter/internal/llm"
	"github.com/rhinoai/cad-interpreter/internal/model"
)

type execCall struct {
	cmd    model.Command
	params model.ParameterMap
}

type fakeExecutor struct {
	calls []execCall
	fn    func(cmd model.Command, params model.ParameterMap) (*ExecutionResult, error)
}

func (f *fakeExecutor) Execute(_ context.Context, cmd model.Command, params model.ParameterMap) (*ExecutionResult, error) {
	f.calls = append(f.calls, execCall{cmd: cmd, params: params.Clone()})
	if f.fn != nil {
		return f.fn(cmd, params)
	}
	result := &ExecutionResult{Message: fmt.Sprintf("executed %s", cmd)}
	switch cmd {
	case model.CommandCreateSphere, model.CommandCreateBox, model.CommandCreateCylinder:
		result.ObjectID = fmt.Sprintf("obj-%d", len(f.calls))
	}
	return result, nil
}

type fakeClient struct {
	reply string
	err   error
	calls int
}

func (f *fakeClient) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeClient) Configured() bool { return true }
func (f *fakeClient) Name() string     { return "fake" }

func newTestOrchestrator(executor Executor, clients ...llm.Client) *Orchestrator {
	return NewOrchestrator(OrchestratorOpts{
		Registry:   NewRegistry(),
		ContextMgr: NewContextManager(nil, nil),
		Cache:      NewResponseCache(5 * time.Minute),
		Executor:   executor,
		Clients:    clients,
		Threshold:  0.3,
		Timeout:    time.Second,
	})
}

func TestProcessSphereCommand(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "create a red sphere with radius 5", cctx)

	assert.Equal(t, model.ResultSuccess, result.Kind)
	assert.Equal(t, model.CommandCreateSphere, result.Command)
	// 0.52 from keywords plus the 0.1 boost: the turn itself puts
	// "create" into recent operations before classification runs.
	assert.InDelta(t, 0.62, result.Confidence, 1e-9)
	assert.Equal(t, 5.0, result.Parameters["radius"])
	assert.Equal(t, "red", result.Parameters["color"])

	require.Len(t, executor.calls, 1)
	require.NotNil(t, cctx.LastCreatedObject)
	assert.Equal(t, "obj-1", cctx.LastCreatedObject.ID)
	assert.Equal(t, "sphere", cctx.LastCreatedObject.Type)
}

func TestProcessFollowUpResolvesTarget(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	o.Process(context.Background(), "create a sphere with radius 5", cctx)
	result := o.Process(context.Background(), "move it by 3,0,0", cctx)

	assert.Equal(t, model.ResultSuccess, result.Kind)
	require.Len(t, executor.calls, 2)
	move := executor.calls[1]
	assert.Equal(t, model.CommandMoveObject, move.cmd)
	assert.Equal(t, "obj-1", move.params["objectId"])
	assert.Equal(t, model.Vector3D{X: 3, Y: 0, Z: 0}, move.params["translation"])
}

func TestProcessCachesSuccess(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	first := o.Process(context.Background(), "describe the scene", cctx)
	second := o.Process(context.Background(), "describe the scene", cctx)

	assert.Equal(t, model.ResultSuccess, first.Kind)
	assert.False(t, first.Cached)
	assert.Equal(t, model.ResultSuccess, second.Kind)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Message, second.Message)
	assert.Len(t, executor.calls, 1)
}

func TestProcessCacheKeyedOnSceneState(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	o.Process(context.Background(), "create a sphere with radius 5", cctx)
	// The first creation changed the observable state, so an identical
	// request computes a fresh key and reaches the executor again.
	o.Process(context.Background(), "create a sphere with radius 5", cctx)

	assert.Len(t, executor.calls, 2)
}

func TestProcessRepairsInvalidRadius(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "create a sphere with radius -5", cctx)

	assert.Equal(t, model.ResultSuccess, result.Kind)
	assert.Equal(t, 1.0, result.Parameters["radius"])
	require.Len(t, executor.calls, 1)
	assert.Equal(t, 1.0, executor.calls[0].params["radius"])
}

func TestProcessLowConfidence(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "smaller", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrLowConfidence, result.ErrorKind)
	assert.Contains(t, result.Message, "clarify")
	assert.Empty(t, executor.calls)
}

func TestProcessUnknownWithoutBackend(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrProviderUnavailable, result.ErrorKind)
	assert.Contains(t, result.Message, "clarify")
	assert.Empty(t, executor.calls)
}

func TestProcessEmptyInput(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "   ", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrParameterInvalid, result.ErrorKind)
	assert.Empty(t, executor.calls)
	assert.Empty(t, cctx.History)
}

func TestProcessNoTargetForDelete(t *testing.T) {
	executor := &fakeExecutor{}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "delete it", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrParameterInvalid, result.ErrorKind)
	assert.Empty(t, executor.calls)
}

func TestProcessExecutorFailure(t *testing.T) {
	executor := &fakeExecutor{
		fn: func(model.Command, model.ParameterMap) (*ExecutionResult, error) {
			return nil, errors.New("geometry kernel unavailable")
		},
	}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "create a sphere with radius 5", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrExecutorFailure, result.ErrorKind)
	assert.Contains(t, result.Message, "geometry kernel unavailable")
	assert.Nil(t, cctx.LastCreatedObject)
}

func TestProcessWarningNotCached(t *testing.T) {
	executor := &fakeExecutor{
		fn: func(cmd model.Command, _ model.ParameterMap) (*ExecutionResult, error) {
			return &ExecutionResult{Message: "done, but check the result", Warning: true}, nil
		},
	}
	o := newTestOrchestrator(executor)
	cctx := model.NewConversationContext()

	first := o.Process(context.Background(), "describe the scene", cctx)
	second := o.Process(context.Background(), "describe the scene", cctx)

	assert.Equal(t, model.ResultWarning, first.Kind)
	assert.False(t, second.Cached)
	assert.Len(t, executor.calls, 2)
}

func TestProcessEscalatesToBackend(t *testing.T) {
	executor := &fakeExecutor{}
	client := &fakeClient{
		reply: "```json\n{\"Actions\":[{\"CommandName\":\"CreateSphere\"}],\"ResponseText\":\"Creating a sphere\"}\n```",
	}
	o := newTestOrchestrator(executor, client)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultSuccess, result.Kind)
	assert.Contains(t, result.Message, "Creating a sphere")
	assert.Equal(t, 1, client.calls)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, model.CommandCreateSphere, executor.calls[0].cmd)
	// The utterance carries no radius; the repair pass supplies 1.0.
	assert.Equal(t, 1.0, executor.calls[0].params["radius"])
}

func TestProcessBackendFreeTextBecomesWarning(t *testing.T) {
	executor := &fakeExecutor{}
	client := &fakeClient{reply: "I can't help with that request."}
	o := newTestOrchestrator(executor, client)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultWarning, result.Kind)
	assert.Equal(t, model.ErrResponseParse, result.ErrorKind)
	assert.Equal(t, "I can't help with that request.", result.Message)
	assert.Empty(t, executor.calls)
}

func TestProcessBackendNoActionsIsPartial(t *testing.T) {
	executor := &fakeExecutor{}
	client := &fakeClient{reply: `{"Actions":[],"ResponseText":"Nothing to build here."}`}
	o := newTestOrchestrator(executor, client)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultPartial, result.Kind)
	assert.Equal(t, "Nothing to build here.", result.Message)
	assert.Empty(t, executor.calls)
}

func TestProcessBackendCallFailure(t *testing.T) {
	executor := &fakeExecutor{}
	client := &fakeClient{err: errors.New("connection refused")}
	o := newTestOrchestrator(executor, client)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Equal(t, model.ErrProviderCall, result.ErrorKind)
	assert.Empty(t, executor.calls)
}

func TestProcessBackendUnknownCommand(t *testing.T) {
	executor := &fakeExecutor{}
	client := &fakeClient{reply: `{"Actions":[{"CommandName":"Teleport"}],"ResponseText":"done"}`}
	o := newTestOrchestrator(executor, client)
	cctx := model.NewConversationContext()

	result := o.Process(context.Background(), "xyzzy plugh", cctx)

	assert.Equal(t, model.ResultError, result.Kind)
	assert.Contains(t, result.Message, "Teleport")
	assert.Empty(t, executor.calls)
}
