package interp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rhinoai/cad-interpreter/internal/llm"
	"github.com/rhinoai/cad-interpreter/internal/model"
	"github.com/rhinoai/cad-interpreter/pkg/logger"
	"github.com/rhinoai/cad-interpreter/pkg/metrics"
)

// ExecutionResult is what the geometry executor reports for one command.
type ExecutionResult struct {
	Message string
	// ObjectID is set when the command created an object.
	ObjectID string
	// Warning marks a command that committed but with caveats.
	Warning bool
}

// Executor applies a validated command to the scene.
type Executor interface {
	Execute(ctx context.Context, cmd model.Command, params model.ParameterMap) (*ExecutionResult, error)
}

var tracer = otel.Tracer("cad-interpreter/interp")

// Orchestrator runs the interpretation pipeline for a single session. It
// is stateless apart from the shared cache; the conversation context is
// passed in and owned by the caller, which must serialize calls per
// context.
type Orchestrator struct {
	registry   *Registry
	classifier *IntentClassifier
	contextMgr *ContextManager
	extractor  *ParameterExtractor
	validator  *SemanticValidator
	cache      *ResponseCache
	executor   Executor
	checker    ConstraintChecker
	clients    []llm.Client
	threshold  float64
	timeout    time.Duration
	logger     *logger.Logger
}

// OrchestratorOpts carries the orchestrator's collaborators. Executor and
// Registry are required; Checker and Clients may be nil/empty.
type OrchestratorOpts struct {
	Registry   *Registry
	ContextMgr *ContextManager
	Cache      *ResponseCache
	Executor   Executor
	Checker    ConstraintChecker
	Clients    []llm.Client
	Threshold  float64
	Timeout    time.Duration
	Logger     *logger.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		registry:   opts.Registry,
		classifier: NewIntentClassifier(opts.Registry),
		contextMgr: opts.ContextMgr,
		extractor:  NewParameterExtractor(),
		validator:  NewSemanticValidator(),
		cache:      opts.Cache,
		executor:   opts.Executor,
		checker:    opts.Checker,
		clients:    opts.Clients,
		threshold:  opts.Threshold,
		timeout:    opts.Timeout,
		logger:     log,
	}
}

// Process runs one interpretation turn. The stages are: cache lookup,
// context refresh, intent classification, parameter extraction with one
// repair attempt, semantic then pre-execution validation, execution.
// Utterances no pattern matches escalate to the completion backend. All
// failures come back as a ProcessingResult; the error return is reserved
// for a cancelled context.
func (o *Orchestrator) Process(ctx context.Context, input string, cctx *model.ConversationContext) model.ProcessingResult {
	ctx, span := tracer.Start(ctx, "interp.Process")
	defer span.End()

	if strings.TrimSpace(input) == "" {
		result := model.Error(model.ErrParameterInvalid, "empty input: tell me what you would like to model")
		o.record(result)
		return result
	}

	// The key is computed before the turn is appended so that the same
	// input against the same observable state hits the same entry.
	key := Fingerprint(input, cctx)
	if o.cache != nil {
		if cached := o.cache.Get(key); cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			o.record(*cached)
			return *cached
		}
	}

	cctx = o.contextMgr.Refresh(ctx, input, cctx)

	intent := o.classifier.Classify(input, cctx)
	span.SetAttributes(
		attribute.String("intent.category", string(intent.Category)),
		attribute.Float64("intent.confidence", intent.Confidence),
	)

	var result model.ProcessingResult
	switch {
	case intent.Category == model.CategoryUnknown && intent.Confidence == 0:
		result = o.escalate(ctx, input, cctx)
	case intent.Confidence < o.threshold:
		result = model.Error(model.ErrLowConfidence,
			fmt.Sprintf("I'm not sure what you mean by %q. Could you clarify what you'd like to do?", input))
		result.Confidence = intent.Confidence
	default:
		result = o.runCommand(ctx, input, intent.Template, cctx)
		result.Confidence = intent.Confidence
	}

	if o.cache != nil && result.IsSuccess() {
		o.cache.Put(key, &result)
	}

	o.record(result)
	return result
}

// runCommand executes the extract / validate / repair / execute tail of
// the pipeline for one resolved template.
func (o *Orchestrator) runCommand(ctx context.Context, input string, template *model.CommandTemplate, cctx *model.ConversationContext) model.ProcessingResult {
	params := o.extractor.Extract(input, template, cctx)

	validation := o.validator.Validate(template.Command, params)
	if !validation.Valid {
		repaired := o.extractor.Adjust(params, validation.Message)
		revalidation := o.validator.Validate(template.Command, repaired)
		if !revalidation.Valid {
			result := model.Error(model.ErrParameterInvalid, revalidation.Message)
			result.Command = template.Command
			result.Parameters = params
			return result
		}
		o.logger.Debug("parameters repaired",
			zap.String("command", string(template.Command)),
			zap.String("reason", validation.Message))
		params = repaired
	}

	if pre := o.validator.PreExecuteValidate(ctx, o.checker, template.Command, params); !pre.Valid {
		result := model.Error(model.ErrParameterInvalid, pre.Message)
		result.Command = template.Command
		result.Parameters = params
		return result
	}

	exec, err := o.executor.Execute(ctx, template.Command, params)
	if err != nil {
		metrics.ExecutorCallsTotal.WithLabelValues(string(template.Command), "error").Inc()
		result := model.Error(model.ErrExecutorFailure, fmt.Sprintf("command failed: %v", err))
		result.Command = template.Command
		result.Parameters = params
		return result
	}
	metrics.ExecutorCallsTotal.WithLabelValues(string(template.Command), "ok").Inc()

	if exec.ObjectID != "" {
		cctx.LastCreatedObject = &model.CreatedObject{
			ID:         exec.ObjectID,
			Type:       strings.TrimPrefix(string(template.Command), "create_"),
			Parameters: params.Clone(),
			Position:   params.Point("center", params.Point("position", model.Origin)),
		}
	}

	var result model.ProcessingResult
	if exec.Warning {
		result = model.Warning(exec.Message)
	} else {
		result = model.Success(exec.Message)
	}
	result.Command = template.Command
	result.Parameters = params
	return result
}

// escalate hands an unmatched utterance to the completion backend and
// executes whatever actions it proposes through the same validation and
// execution tail as pattern-matched commands.
func (o *Orchestrator) escalate(ctx context.Context, input string, cctx *model.ConversationContext) model.ProcessingResult {
	client := llm.FirstConfigured(o.clients)
	if client == nil {
		return model.Error(model.ErrProviderUnavailable,
			fmt.Sprintf("I couldn't understand %q and no completion backend is configured. Could you clarify what you'd like to do?", input))
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := client.Complete(callCtx, BuildSystemPrompt(o.registry, cctx), input)
	if err != nil {
		metrics.RecordProviderCall(client.Name(), "error", time.Since(start).Seconds())
		o.logger.Warn("completion backend call failed",
			zap.String("provider", client.Name()),
			zap.Error(err))
		return model.Error(model.ErrProviderCall,
			fmt.Sprintf("the %s backend did not respond: %v", client.Name(), err))
	}
	metrics.RecordProviderCall(client.Name(), "ok", time.Since(start).Seconds())

	reply, err := ParseBackendReply(raw)
	if err != nil {
		// The backend answered something, just not in the agreed shape.
		// Surface its text rather than discarding it.
		result := model.Warning(strings.TrimSpace(raw))
		result.ErrorKind = model.ErrResponseParse
		return result
	}

	if len(reply.Actions) == 0 {
		return model.Partial(reply.ResponseText)
	}

	var messages []string
	executed, failed := 0, 0
	for _, action := range reply.Actions {
		template, ok := o.registry.TemplateByName(action.CommandName)
		if !ok {
			failed++
			messages = append(messages, fmt.Sprintf("unknown command %q", action.CommandName))
			continue
		}
		r := o.runCommand(ctx, input, template, cctx)
		messages = append(messages, r.Message)
		if r.Kind == model.ResultError {
			failed++
		} else {
			executed++
		}
	}

	message := strings.Join(messages, "; ")
	if reply.ResponseText != "" {
		message = reply.ResponseText + ": " + message
	}

	switch {
	case failed == 0:
		return model.Success(message)
	case executed == 0:
		return model.Error(model.ErrExecutorFailure, message)
	default:
		return model.Warning(message)
	}
}

func (o *Orchestrator) record(result model.ProcessingResult) {
	metrics.RecordTurn(string(result.Kind), result.Confidence)
}
