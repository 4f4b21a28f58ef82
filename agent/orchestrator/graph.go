package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[GraphInput, contractx.Response], error) {
	graph := compose.NewGraph[GraphInput, contractx.Response]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in GraphInput) (*GraphState, error) {
			return o.validateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *GraphState) (*GraphState, error) {
			return o.classifyIntent(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_params",
		compose.InvokableLambda(func(ctx context.Context, in *GraphState) (*GraphState, error) {
			return o.resolveParams(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_params: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tools",
		compose.InvokableLambda(func(ctx context.Context, in *GraphState) (*GraphState, error) {
			return o.executeTools(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tools: %w", err)
	}

	if err := graph.AddLambdaNode("update_memory",
		compose.InvokableLambda(func(ctx context.Context, in *GraphState) (*GraphState, error) {
			return o.updateMemory(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node update_memory: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *GraphState) (contractx.Response, error) {
			return o.finalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "classify_intent"},
		{"classify_intent", "resolve_params"},
		{"resolve_params", "execute_tools"},
		{"execute_tools", "update_memory"},
		{"update_memory", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_query"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}
